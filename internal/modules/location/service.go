// README: Location service applies driver pings to the live index and the query-side table.
package location

import (
	"context"
	"fmt"
	"time"

	"kwenda/internal/breaker"
	"kwenda/internal/logger"
	"kwenda/internal/types"
)

// maxClockSkew bounds how far ahead of server time a device timestamp may be.
const maxClockSkew = time.Minute

type positionStore interface {
	SetGeo(ctx context.Context, u DriverUpdate) (RejectReason, error)
	Persist(ctx context.Context, u DriverUpdate) error
	CountAvailable(ctx context.Context, center types.Point, radiusKm float64, since time.Time) (int, error)
}

type Service struct {
	store    positionStore
	breakers *breaker.Registry
	log      logger.Logger
	now      func() time.Time
}

func NewService(store positionStore, breakers *breaker.Registry, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop{}
	}
	if breakers == nil {
		breakers = breaker.NewRegistry(breaker.DefaultOptions(), nil, log)
	}
	return &Service{store: store, breakers: breakers, log: log, now: time.Now}
}

// UpdateDriverLocation applies a ping. Stale and throttled pings are reported
// in the result, not as errors.
func (s *Service) UpdateDriverLocation(ctx context.Context, u DriverUpdate) (UpdateResult, error) {
	if u.DriverID == "" {
		return UpdateResult{}, fmt.Errorf("%w: driver_id is required", ErrBadRequest)
	}
	if !ValidPoint(u.Point) {
		return UpdateResult{}, fmt.Errorf("%w: point is out of range", ErrBadRequest)
	}
	now := s.now()
	if u.TsMs <= 0 || u.Time().After(now.Add(maxClockSkew)) {
		u.TsMs = now.UnixMilli()
	}

	reason, err := breaker.Execute(ctx, s.breakers.Get(breaker.Redis), func(ctx context.Context) (RejectReason, error) {
		return s.store.SetGeo(ctx, u)
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update live position: %w", err)
	}
	if reason != "" {
		return UpdateResult{Accepted: false, Reason: reason}, nil
	}

	err = s.breakers.Get(breaker.Postgres).Do(ctx, func(ctx context.Context) error {
		return s.store.Persist(ctx, u)
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("persist position: %w", err)
	}
	return UpdateResult{Accepted: true}, nil
}

// CountAvailable counts online, available drivers within radiusKm that pinged
// within freshness.
func (s *Service) CountAvailable(ctx context.Context, center types.Point, radiusKm float64, freshness time.Duration) (int, error) {
	return s.store.CountAvailable(ctx, center, radiusKm, s.now().Add(-freshness))
}
