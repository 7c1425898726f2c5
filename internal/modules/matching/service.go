// README: Dispatch service: nearby query, filter, rank, waves, notification sink and acceptance.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"kwenda/internal/breaker"
	"kwenda/internal/config"
	"kwenda/internal/logger"
	"kwenda/internal/metrics"
	"kwenda/internal/modules/location"
	"kwenda/internal/modules/notification"
	"kwenda/internal/types"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrNoQualifiedDrivers = errors.New("no qualified drivers nearby")
	ErrNotOffered         = errors.New("booking was not offered to this driver")
	ErrAlreadyAccepted    = errors.New("booking already accepted")
)

type CandidateSource interface {
	NearbyDrivers(ctx context.Context, q NearbyQuery) ([]DriverCandidate, error)
}

// DispatchRecorder keeps per-booking dispatch state.
type DispatchRecorder interface {
	RecordDispatch(ctx context.Context, bookingID types.ID, driverIDs []types.ID, at time.Time) error
	WasNotified(ctx context.Context, bookingID, driverID types.ID) (bool, error)
	// MarkAccepted returns false when another driver accepted first.
	MarkAccepted(ctx context.Context, bookingID, driverID types.ID) (bool, error)
	IsAccepted(ctx context.Context, bookingID types.ID) (bool, error)
}

// RouteEstimator returns road travel time in minutes.
type RouteEstimator interface {
	DrivingMinutes(ctx context.Context, from, to types.Point) (float64, error)
}

type Deps struct {
	Candidates CandidateSource
	Sink       notification.Sink
	Records    DispatchRecorder
	// Routes is optional; without it ETAs use the distance formula.
	Routes   RouteEstimator
	Breakers *breaker.Registry
	Metrics  *metrics.Metrics
	Log      logger.Logger
}

type Service struct {
	candidates CandidateSource
	sink       notification.Sink
	records    DispatchRecorder
	routes     RouteEstimator
	breakers   *breaker.Registry
	metrics    *metrics.Metrics
	log        logger.Logger

	ranker   Ranker
	criteria Criteria
	plan     WavePlan
	radiusKm float64
	loc      *time.Location
	now      func() time.Time
}

func NewService(deps Deps, mcfg config.MatchingConfig, dcfg config.DispatchConfig) (*Service, error) {
	if mcfg.AvgSpeedKmh <= 0 {
		return nil, ErrInvalidSpeed
	}
	loc, err := time.LoadLocation(mcfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", mcfg.Timezone, err)
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop{}
	}
	breakers := deps.Breakers
	if breakers == nil {
		breakers = breaker.NewRegistry(breaker.DefaultOptions(), nil, log)
	}
	ranker := NewRanker()
	ranker.AvgSpeedKmh = mcfg.AvgSpeedKmh
	return &Service{
		candidates: deps.Candidates,
		sink:       deps.Sink,
		records:    deps.Records,
		routes:     deps.Routes,
		breakers:   breakers,
		metrics:    deps.Metrics,
		log:        log,
		ranker:     ranker,
		criteria:   CriteriaFromConfig(mcfg),
		plan:       PlanFromConfig(dcfg),
		radiusKm:   mcfg.RadiusKm,
		loc:        loc,
		now:        time.Now,
	}, nil
}

func (s *Service) Ranker() Ranker { return s.ranker }

// LocalHour is the hour of t in the service timezone.
func (s *Service) LocalHour(t time.Time) int {
	return t.In(s.loc).Hour()
}

// Rank ranks an arbitrary candidate list, optionally dropping unqualified drivers first.
func (s *Service) Rank(drivers []DriverCandidate, ctx RankingContext, qualifiedOnly bool) []RankedDriver {
	if qualifiedOnly {
		drivers = FilterQualifiedDrivers(drivers, s.criteria)
	}
	return s.ranker.Rank(drivers, ctx)
}

func validPoint(p types.Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

func normalize(req *DispatchRequest) error {
	if req.BookingID == "" {
		return fmt.Errorf("%w: booking_id is required", ErrBadRequest)
	}
	if !validPoint(req.Pickup) {
		return fmt.Errorf("%w: pickup is out of range", ErrBadRequest)
	}
	if req.Destination != nil && !validPoint(*req.Destination) {
		return fmt.Errorf("%w: destination is out of range", ErrBadRequest)
	}
	switch req.Priority {
	case "":
		req.Priority = PriorityNormal
	case PriorityLow, PriorityNormal, PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrBadRequest, req.Priority)
	}
	switch req.ServiceType {
	case "":
		req.ServiceType = ServiceTransport
	case ServiceTransport, ServiceDelivery:
	default:
		return fmt.Errorf("%w: unknown service_type %q", ErrBadRequest, req.ServiceType)
	}
	if req.Price.Amount < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrBadRequest)
	}
	return nil
}

// Dispatch ranks the drivers around the pickup and hands one offer per driver
// and wave to the sink. The offered set is recorded first; a failure of
// either write fails the dispatch.
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if err := normalize(&req); err != nil {
		s.metrics.DispatchOutcome("bad_request")
		return DispatchResult{}, err
	}
	now := s.now()
	if req.RequestedAt.IsZero() {
		req.RequestedAt = now
	}
	result := DispatchResult{BookingID: req.BookingID, DispatchedAt: now}

	q := NearbyQuery{
		Center:       req.Pickup,
		RadiusKm:     s.radiusKm,
		VehicleClass: req.VehicleClass,
		MinRating:    s.criteria.MinRating,
	}
	candidates, err := breaker.Execute(ctx, s.breakers.Get(breaker.Postgres), func(ctx context.Context) ([]DriverCandidate, error) {
		return s.candidates.NearbyDrivers(ctx, q)
	})
	if err != nil {
		s.metrics.DispatchOutcome("error")
		return result, fmt.Errorf("nearby drivers: %w", err)
	}
	result.Candidates = len(candidates)

	qualified := FilterQualifiedDrivers(candidates, s.criteria)
	result.Qualified = len(qualified)
	if len(qualified) == 0 {
		s.metrics.DispatchOutcome("no_drivers")
		s.log.Infof("booking %s: %d candidates, none qualified", req.BookingID, len(candidates))
		return result, ErrNoQualifiedDrivers
	}

	rctx := RankingContext{
		Pickup:      req.Pickup,
		Destination: req.Destination,
		Priority:    req.Priority,
		TimeOfDay:   s.LocalHour(req.RequestedAt),
	}
	ranked := s.ranker.Rank(qualified, rctx)
	result.Best = &ranked[0]
	result.Waves = BuildWaves(ranked, s.plan, now)

	// Offered drivers are recorded before any offer leaves; Accept reads this set.
	if s.records != nil {
		ids := make([]types.ID, len(ranked))
		for i, d := range ranked {
			ids[i] = d.DriverID
		}
		err = s.breakers.Get(breaker.Redis).Do(ctx, func(ctx context.Context) error {
			return s.records.RecordDispatch(ctx, req.BookingID, ids, now)
		})
		if err != nil {
			s.metrics.DispatchOutcome("error")
			return result, fmt.Errorf("record dispatch: %w", err)
		}
	}

	offers := Notifications(req, result.Waves, now)
	err = s.breakers.Get(breaker.Notifications).Do(ctx, func(ctx context.Context) error {
		return s.sink.Send(ctx, offers)
	})
	if err != nil {
		s.metrics.DispatchOutcome("error")
		return result, fmt.Errorf("send offers: %w", err)
	}

	for _, w := range result.Waves {
		s.metrics.WaveNotified(w.Number, len(w.Drivers))
	}
	s.metrics.DispatchOutcome("dispatched")
	s.log.Infof("booking %s dispatched to %d drivers in %d waves (best %s, score %d)",
		req.BookingID, len(ranked), len(result.Waves), result.Best.DriverID, result.Best.PredictedScore)
	return result, nil
}

// Accept claims the booking for driverID. Later waves are not pushed once a
// booking is accepted.
func (s *Service) Accept(ctx context.Context, bookingID, driverID types.ID) error {
	if bookingID == "" || driverID == "" {
		return fmt.Errorf("%w: booking and driver are required", ErrBadRequest)
	}
	if s.records == nil {
		return errors.New("dispatch records not configured")
	}
	type claim struct{ offered, won bool }
	c, err := breaker.Execute(ctx, s.breakers.Get(breaker.Redis), func(ctx context.Context) (claim, error) {
		offered, err := s.records.WasNotified(ctx, bookingID, driverID)
		if err != nil || !offered {
			return claim{}, err
		}
		won, err := s.records.MarkAccepted(ctx, bookingID, driverID)
		return claim{offered: true, won: won}, err
	})
	switch {
	case err != nil:
		return fmt.Errorf("accept booking %s: %w", bookingID, err)
	case !c.offered:
		return ErrNotOffered
	case !c.won:
		return ErrAlreadyAccepted
	}
	s.log.Infof("booking %s accepted by driver %s", bookingID, driverID)
	return nil
}

type ETASource string

const (
	ETAFromRoute   ETASource = "route"
	ETAFromFormula ETASource = "formula"
)

type ETAResult struct {
	Minutes    int       `json:"minutes"`
	DistanceKm float64   `json:"distance_km"`
	Source     ETASource `json:"source"`
}

// RouteETA prefers road travel time and falls back to the distance formula
// when no route estimator is configured or the call fails.
func (s *Service) RouteETA(ctx context.Context, from, to types.Point) (ETAResult, error) {
	if !validPoint(from) || !validPoint(to) {
		return ETAResult{}, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	dist := location.DistanceKm(from, to)
	if s.routes != nil {
		mins, err := breaker.Execute(ctx, s.breakers.Get(breaker.Maps), func(ctx context.Context) (float64, error) {
			return s.routes.DrivingMinutes(ctx, from, to)
		})
		if err == nil {
			return ETAResult{Minutes: int(math.Ceil(mins + reactionMinutes)), DistanceKm: dist, Source: ETAFromRoute}, nil
		}
		s.log.Debugf("route eta unavailable, using formula: %v", err)
	}
	mins, err := CalculateETA(dist, s.ranker.AvgSpeedKmh)
	if err != nil {
		return ETAResult{}, err
	}
	return ETAResult{Minutes: mins, DistanceKm: dist, Source: ETAFromFormula}, nil
}
