// README: Candidate filter keeping drivers that meet the minimum quality thresholds.
package matching

import "kwenda/internal/config"

type Criteria struct {
	MinRating         float64
	MaxDistanceKm     float64
	MinAcceptanceRate float64
}

func DefaultCriteria() Criteria {
	return Criteria{MinRating: 3.0, MaxDistanceKm: 10, MinAcceptanceRate: 0.5}
}

func CriteriaFromConfig(cfg config.MatchingConfig) Criteria {
	return Criteria{
		MinRating:         cfg.MinRating,
		MaxDistanceKm:     cfg.MaxDistanceKm,
		MinAcceptanceRate: cfg.MinAcceptanceRate,
	}
}

// Qualifies reports whether c passes every threshold. Missing stats count as zero.
func (cr Criteria) Qualifies(c DriverCandidate) bool {
	r := FilterDefaults().Resolve(c)
	return r.Rating >= cr.MinRating &&
		r.DistanceKm <= cr.MaxDistanceKm &&
		r.AcceptanceRate >= cr.MinAcceptanceRate
}

// FilterQualifiedDrivers returns the qualifying candidates in input order.
// The result is never nil.
func FilterQualifiedDrivers(drivers []DriverCandidate, cr Criteria) []DriverCandidate {
	out := make([]DriverCandidate, 0, len(drivers))
	for _, d := range drivers {
		if cr.Qualifies(d) {
			out = append(out, d)
		}
	}
	return out
}
