package matching

import "kwenda/internal/types"

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

// qualified returns a candidate that passes the default filter.
func qualified(id string, distanceKm, rating float64) DriverCandidate {
	return DriverCandidate{
		DriverID:       types.ID(id),
		DistanceKm:     distanceKm,
		RatingAverage:  f64(rating),
		TotalRides:     intp(50),
		AcceptanceRate: f64(0.8),
		AvgPickupTime:  f64(6),
	}
}
