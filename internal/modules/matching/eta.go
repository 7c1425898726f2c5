// README: Formula ETA from straight-line distance and an assumed average speed.
package matching

import (
	"errors"
	"math"
)

const (
	DefaultAvgSpeedKmh = 30.0
	// reactionMinutes is added to every ETA for the driver to accept and start moving.
	reactionMinutes = 1.5
)

var (
	ErrInvalidSpeed    = errors.New("average speed must be positive")
	ErrInvalidDistance = errors.New("distance must be non-negative")
)

// CalculateETA returns whole minutes to pickup, rounded up.
func CalculateETA(distanceKm, avgSpeedKmh float64) (int, error) {
	if math.IsNaN(avgSpeedKmh) || avgSpeedKmh <= 0 {
		return 0, ErrInvalidSpeed
	}
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return 0, ErrInvalidDistance
	}
	return int(math.Ceil(distanceKm/avgSpeedKmh*60 + reactionMinutes)), nil
}
