// README: Dispatch request, driver candidate and wave types shared by ranking and the dispatch service.
package matching

import (
	"time"

	"kwenda/internal/types"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type ServiceType string

const (
	ServiceTransport ServiceType = "transport"
	ServiceDelivery  ServiceType = "delivery"
)

// DriverCandidate is one row of the nearby-driver query. Optional stats are
// nil when the driver has no history yet.
type DriverCandidate struct {
	DriverID       types.ID   `json:"driver_id"`
	DistanceKm     float64    `json:"distance_km"`
	RatingAverage  *float64   `json:"rating_average,omitempty"`
	TotalRides     *int       `json:"total_rides,omitempty"`
	AcceptanceRate *float64   `json:"acceptance_rate,omitempty"`
	AvgPickupTime  *float64   `json:"avg_pickup_time,omitempty"`
	LastActive     *time.Time `json:"last_active,omitempty"`
}

// CandidateDefaults fills the optional stats of a candidate.
type CandidateDefaults struct {
	Rating           float64
	TotalRides       int
	AcceptanceRate   float64
	AvgPickupMinutes float64
}

// RankingDefaults are the values assumed for drivers with no history.
func RankingDefaults() CandidateDefaults {
	return CandidateDefaults{Rating: 3.5, TotalRides: 0, AcceptanceRate: 0.7, AvgPickupMinutes: 10}
}

// FilterDefaults treat every missing stat as zero, so unknown drivers never
// pass a positive threshold.
func FilterDefaults() CandidateDefaults {
	return CandidateDefaults{}
}

// Resolved is a candidate with every optional stat filled in.
type Resolved struct {
	DistanceKm       float64
	Rating           float64
	TotalRides       int
	AcceptanceRate   float64
	AvgPickupMinutes float64
}

func (d CandidateDefaults) Resolve(c DriverCandidate) Resolved {
	r := Resolved{
		DistanceKm:       c.DistanceKm,
		Rating:           d.Rating,
		TotalRides:       d.TotalRides,
		AcceptanceRate:   d.AcceptanceRate,
		AvgPickupMinutes: d.AvgPickupMinutes,
	}
	if c.RatingAverage != nil {
		r.Rating = *c.RatingAverage
	}
	if c.TotalRides != nil {
		r.TotalRides = *c.TotalRides
	}
	if c.AcceptanceRate != nil {
		r.AcceptanceRate = *c.AcceptanceRate
	}
	if c.AvgPickupTime != nil {
		r.AvgPickupMinutes = *c.AvgPickupTime
	}
	return r
}

type RankingContext struct {
	Pickup      types.Point  `json:"pickup"`
	Destination *types.Point `json:"destination,omitempty"`
	Priority    Priority     `json:"priority"`
	// TimeOfDay is the local hour, 0..23.
	TimeOfDay int `json:"time_of_day"`
}

type RankedDriver struct {
	DriverCandidate
	PredictedScore   int `json:"predicted_score"`
	EstimatedArrival int `json:"estimated_arrival"`
	Rank             int `json:"rank"`
}

// Wave is one staggered batch of a dispatch. Drivers of a wave may be alerted
// from NotBefore and the offer lapses at ExpiresAt.
type Wave struct {
	Number    int            `json:"number"`
	Drivers   []RankedDriver `json:"drivers"`
	NotBefore time.Time      `json:"not_before"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// WaveStep sizes one wave. Size 0 takes every remaining driver.
type WaveStep struct {
	Size         int
	ExpiresAfter time.Duration
}

type WavePlan []WaveStep

// DefaultWavePlan notifies the top 3, then the next 3, then everyone else.
func DefaultWavePlan() WavePlan {
	return WavePlan{
		{Size: 3, ExpiresAfter: 30 * time.Second},
		{Size: 3, ExpiresAfter: 90 * time.Second},
		{Size: 0, ExpiresAfter: 180 * time.Second},
	}
}

type DispatchRequest struct {
	BookingID          types.ID     `json:"booking_id"`
	ServiceType        ServiceType  `json:"service_type"`
	Pickup             types.Point  `json:"pickup"`
	PickupAddress      string       `json:"pickup_address"`
	Destination        *types.Point `json:"destination,omitempty"`
	DestinationAddress string       `json:"destination_address,omitempty"`
	Price              types.Money  `json:"price"`
	Priority           Priority     `json:"priority"`
	VehicleClass       string       `json:"vehicle_class,omitempty"`
	City               string       `json:"city,omitempty"`
	RequestedAt        time.Time    `json:"requested_at"`
}

type DispatchResult struct {
	BookingID    types.ID      `json:"booking_id"`
	DispatchedAt time.Time     `json:"dispatched_at"`
	Candidates   int           `json:"candidates"`
	Qualified    int           `json:"qualified"`
	Waves        []Wave        `json:"waves"`
	Best         *RankedDriver `json:"best,omitempty"`
}

// NearbyQuery is the input of the nearby-driver lookup. Zero VehicleClass and
// MinRating disable those predicates.
type NearbyQuery struct {
	Center       types.Point
	RadiusKm     float64
	VehicleClass string
	MinRating    float64
	MaxPingAge   time.Duration
	Limit        int
}
