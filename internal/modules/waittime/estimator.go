// README: Wait-time estimator combining live driver counts with historical assignment times.
package waittime

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"kwenda/internal/breaker"
	"kwenda/internal/config"
	"kwenda/internal/logger"
	"kwenda/internal/metrics"
	"kwenda/internal/types"
)

const (
	// DefaultAverageMinutes is used when the city has no usable history.
	DefaultAverageMinutes = 5.0
	// Samples outside (0, maxSampleMinutes) are treated as outliers.
	maxSampleMinutes = 30.0

	highConfidenceDrivers = 5
	fastPickupMinutes     = 2

	MessageNoDrivers   = "no drivers"
	MessageUnavailable = "unable to estimate"
)

type DriverCounter interface {
	CountAvailable(ctx context.Context, center types.Point, radiusKm float64, freshness time.Duration) (int, error)
}

type AssignmentHistory interface {
	RecentAssignments(ctx context.Context, city string, limit int) ([]Assignment, error)
}

type Estimator struct {
	drivers  DriverCounter
	history  AssignmentHistory
	breakers *breaker.Registry
	metrics  *metrics.Metrics
	log      logger.Logger
	cfg      config.WaitTimeConfig
}

func NewEstimator(drivers DriverCounter, history AssignmentHistory, cfg config.WaitTimeConfig,
	breakers *breaker.Registry, m *metrics.Metrics, log logger.Logger) *Estimator {
	if log == nil {
		log = logger.Nop{}
	}
	if breakers == nil {
		breakers = breaker.NewRegistry(breaker.DefaultOptions(), nil, log)
	}
	return &Estimator{drivers: drivers, history: history, breakers: breakers, metrics: m, log: log, cfg: cfg}
}

// AverageAssignmentMinutes averages the usable samples, or returns the default.
func AverageAssignmentMinutes(history []Assignment) float64 {
	samples := make([]float64, 0, len(history))
	for _, a := range history {
		m := a.Minutes()
		if m > 0 && m < maxSampleMinutes {
			samples = append(samples, m)
		}
	}
	if len(samples) == 0 {
		return DefaultAverageMinutes
	}
	return stat.Mean(samples, nil)
}

// Decide applies the confidence table to a driver count and average.
func Decide(driversAvailable int, avgMinutes float64) Estimate {
	est := Estimate{DriversAvailable: driversAvailable}
	switch {
	case driversAvailable <= 0:
		est.DriversAvailable = 0
		est.Confidence = ConfidenceLow
		est.Message = MessageNoDrivers
		return est
	case driversAvailable >= highConfidenceDrivers:
		est.Estimated = minutes(fastPickupMinutes)
		est.Confidence = ConfidenceHigh
	case driversAvailable >= 2:
		est.Estimated = minutes(avgMinutes / 2)
		est.Confidence = ConfidenceMedium
	default:
		est.Estimated = minutes(avgMinutes)
		est.Confidence = ConfidenceLow
	}
	est.Message = fmt.Sprintf("about %d min", *est.Estimated)
	return est
}

// minutes rounds half away from zero to whole minutes.
func minutes(v float64) *int {
	m := int(math.Round(v))
	return &m
}

func degraded(cause error) Estimate {
	return Estimate{
		Confidence: ConfidenceLow,
		Message:    MessageUnavailable,
		Degraded:   true,
		Cause:      cause,
	}
}

// Estimate never fails. Collaborator errors, including an open circuit,
// produce a degraded low-confidence value.
func (e *Estimator) Estimate(ctx context.Context, at types.Point, city string) Estimate {
	est := e.estimate(ctx, at, city)
	e.metrics.EstimateServed(string(est.Confidence), est.Degraded)
	if est.Degraded {
		e.log.Warnf("wait-time estimate degraded for %s: %v", city, est.Cause)
	}
	return est
}

func (e *Estimator) estimate(ctx context.Context, at types.Point, city string) Estimate {
	count, err := breaker.Execute(ctx, e.breakers.Get(breaker.Redis), func(ctx context.Context) (int, error) {
		return e.drivers.CountAvailable(ctx, at, e.cfg.RadiusKm, e.cfg.Freshness())
	})
	if err != nil {
		return degraded(fmt.Errorf("count drivers: %w", err))
	}

	history, err := breaker.Execute(ctx, e.breakers.Get(breaker.Postgres), func(ctx context.Context) ([]Assignment, error) {
		return e.history.RecentAssignments(ctx, city, e.cfg.SampleLimit)
	})
	if err != nil {
		return degraded(fmt.Errorf("assignment history: %w", err))
	}

	return Decide(count, AverageAssignmentMinutes(history))
}
