// README: Wait-time estimate returned to requesters, with explicit degradation.
package waittime

import "time"

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Estimate is always returned, even when a collaborator failed. Estimated is
// nil exactly when no driver is available. Degraded marks a fallback value and
// Cause keeps the underlying error for logs.
type Estimate struct {
	Estimated        *int       `json:"estimated"`
	Confidence       Confidence `json:"confidence"`
	DriversAvailable int        `json:"drivers_available"`
	Message          string     `json:"message"`
	Degraded         bool       `json:"degraded"`
	Cause            error      `json:"-"`
}

// Assignment is one historical booking with the time a driver was assigned.
type Assignment struct {
	CreatedAt  time.Time
	AssignedAt time.Time
}

func (a Assignment) Minutes() float64 {
	return a.AssignedAt.Sub(a.CreatedAt).Minutes()
}
