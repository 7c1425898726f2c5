// README: Relay pushes persisted offers once their wave opens, until the booking is accepted.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kwenda/internal/breaker"
	"kwenda/internal/logger"
	"kwenda/internal/metrics"
	"kwenda/internal/types"
)

type PendingStore interface {
	DuePending(ctx context.Context, now time.Time, limit int) ([]Notification, error)
	MarkDelivered(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type DevicePusher interface {
	Push(ctx context.Context, n Notification) error
}

// AcceptanceChecker reports whether a driver already took the booking.
type AcceptanceChecker interface {
	IsAccepted(ctx context.Context, bookingID types.ID) (bool, error)
}

type Relay struct {
	store    PendingStore
	pusher   DevicePusher
	inApp    DevicePusher
	accepted AcceptanceChecker
	breakers *breaker.Registry
	metrics  *metrics.Metrics
	log      logger.Logger
	interval time.Duration
	batch    int
	now      func() time.Time
}

type RelayDeps struct {
	Store  PendingStore
	Pusher DevicePusher
	// InApp is an optional second channel, published after a successful push.
	InApp    DevicePusher
	Accepted AcceptanceChecker
	Breakers *breaker.Registry
	Metrics  *metrics.Metrics
	Log      logger.Logger
}

func NewRelay(deps RelayDeps, interval time.Duration, batch int) *Relay {
	log := deps.Log
	if log == nil {
		log = logger.Nop{}
	}
	return &Relay{
		store:    deps.Store,
		pusher:   deps.Pusher,
		inApp:    deps.InApp,
		accepted: deps.Accepted,
		breakers: deps.Breakers,
		metrics:  deps.Metrics,
		log:      log,
		interval: interval,
		batch:    batch,
		now:      time.Now,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Warnf("relay tick: %v", err)
			}
		}
	}
}

// Tick delivers one batch of due notifications and returns how many were pushed.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	now := r.now()
	due, err := breaker.Execute(ctx, r.breakers.Get(breaker.Postgres), func(ctx context.Context) ([]Notification, error) {
		return r.store.DuePending(ctx, now, r.batch)
	})
	if err != nil {
		return 0, err
	}

	var (
		done     []uuid.UUID
		pushed   int
		accepted = make(map[types.ID]bool)
		pushErr  error
	)
	fcm := r.breakers.Get(breaker.FCM)
	for _, n := range due {
		taken, seen := accepted[n.BookingID]
		if !seen && r.accepted != nil {
			taken, err = breaker.Execute(ctx, r.breakers.Get(breaker.Redis), func(ctx context.Context) (bool, error) {
				return r.accepted.IsAccepted(ctx, n.BookingID)
			})
			if err != nil {
				r.log.Warnf("acceptance check for booking %s: %v", n.BookingID, err)
				taken = false
			}
			accepted[n.BookingID] = taken
		}
		if taken {
			done = append(done, n.ID)
			r.metrics.RelayDelivery("skipped_accepted")
			continue
		}

		err := fcm.Do(ctx, func(ctx context.Context) error { return r.pusher.Push(ctx, n) })
		switch {
		case err == nil:
			done = append(done, n.ID)
			pushed++
			r.metrics.RelayDelivery("sent")
			r.publishInApp(ctx, n)
		case errors.Is(err, ErrExpired):
			done = append(done, n.ID)
			r.metrics.RelayDelivery("expired")
		case errors.Is(err, breaker.ErrOpen):
			r.metrics.RelayDelivery("circuit_open")
			pushErr = err
		default:
			r.metrics.RelayDelivery("failed")
			r.log.Warnf("push notification %s to driver %s: %v", n.ID, n.DriverID, err)
		}
		if pushErr != nil {
			break
		}
	}

	if len(done) > 0 {
		markErr := r.breakers.Get(breaker.Postgres).Do(ctx, func(ctx context.Context) error {
			return r.store.MarkDelivered(ctx, done, now)
		})
		if markErr != nil {
			return pushed, errors.Join(pushErr, markErr)
		}
	}
	if pushed > 0 {
		r.log.Debugf("relay pushed %d of %d due notifications", pushed, len(due))
	}
	return pushed, pushErr
}

// publishInApp mirrors a delivered offer on the in-app channel. Failures are
// logged only; the push already reached the device.
func (r *Relay) publishInApp(ctx context.Context, n Notification) {
	if r.inApp == nil {
		return
	}
	err := r.breakers.Get(breaker.MQTT).Do(ctx, func(ctx context.Context) error {
		return r.inApp.Push(ctx, n)
	})
	if err != nil {
		r.metrics.RelayDelivery("in_app_failed")
		r.log.Warnf("in-app offer %s to driver %s: %v", n.ID, n.DriverID, err)
		return
	}
	r.metrics.RelayDelivery("in_app_sent")
}
