// README: Prometheus collectors for dispatch, wait-time estimation, relay and circuit breakers.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kwenda/internal/breaker"
)

// Metrics groups the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
	dispatches         *prometheus.CounterVec
	notifiedDrivers    *prometheus.CounterVec
	estimates          *prometheus.CounterVec
	relayDeliveries    *prometheus.CounterVec
}

// New registers the collectors on reg. If reg is nil the default registerer is
// used. Collectors that are already registered are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kwenda_breaker_state",
			Help: "Circuit state per dependency (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
		breakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kwenda_breaker_transitions_total",
			Help: "Circuit state transitions per dependency",
		}, []string{"name", "to"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kwenda_dispatch_requests_total",
			Help: "Dispatch attempts by outcome",
		}, []string{"outcome"}),
		notifiedDrivers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kwenda_dispatch_notified_drivers_total",
			Help: "Drivers stamped into a dispatch wave",
		}, []string{"wave"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kwenda_waittime_estimates_total",
			Help: "Wait-time estimates by confidence",
		}, []string{"confidence", "degraded"}),
		relayDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kwenda_relay_deliveries_total",
			Help: "Push deliveries attempted by the notification relay",
		}, []string{"result"}),
	}
	var err error
	if m.breakerState, err = register(reg, m.breakerState); err != nil {
		return nil, err
	}
	if m.breakerTransitions, err = register(reg, m.breakerTransitions); err != nil {
		return nil, err
	}
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.notifiedDrivers, err = register(reg, m.notifiedDrivers); err != nil {
		return nil, err
	}
	if m.estimates, err = register(reg, m.estimates); err != nil {
		return nil, err
	}
	if m.relayDeliveries, err = register(reg, m.relayDeliveries); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the given gatherer, or the default one when nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// BreakerStateChanged matches the breaker.Registry hook signature.
func (m *Metrics) BreakerStateChanged(name string, _, to breaker.State) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(stateValue(to))
	m.breakerTransitions.WithLabelValues(name, string(to)).Inc()
}

func (m *Metrics) DispatchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WaveNotified(wave, drivers int) {
	if m == nil || drivers == 0 {
		return
	}
	m.notifiedDrivers.WithLabelValues(strconv.Itoa(wave)).Add(float64(drivers))
}

func (m *Metrics) EstimateServed(confidence string, degraded bool) {
	if m == nil {
		return
	}
	m.estimates.WithLabelValues(confidence, strconv.FormatBool(degraded)).Inc()
}

func (m *Metrics) RelayDelivery(result string) {
	if m == nil {
		return
	}
	m.relayDeliveries.WithLabelValues(result).Inc()
}

func stateValue(s breaker.State) float64 {
	switch s {
	case breaker.StateHalfOpen:
		return 1
	case breaker.StateOpen:
		return 2
	default:
		return 0
	}
}
