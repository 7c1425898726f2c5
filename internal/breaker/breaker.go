// README: Circuit breaker guarding calls to external dependencies (database, push, maps).
package breaker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"kwenda/internal/logger"
)

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	DefaultThreshold        = 25
	DefaultTimeout          = 15 * time.Second
	DefaultHalfOpenRequests = 3
)

// ErrOpen is matched by every rejection while a circuit is open.
var ErrOpen = errors.New("circuit open")

// OpenError is returned instead of invoking the guarded call.
type OpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Circuit [%s] OPEN. Retry in %ds", e.Name, secs)
}

func (e *OpenError) Unwrap() error { return ErrOpen }

type Options struct {
	// Threshold is the number of consecutive counted failures that opens the circuit.
	Threshold int
	// Timeout is measured from the last failure before a trial call is let through.
	Timeout time.Duration
	// HalfOpenRequests is both the trial concurrency limit and the number of
	// consecutive successes needed to close again.
	HalfOpenRequests int
	// IsExpected marks additional errors that must not degrade the circuit.
	IsExpected func(error) bool
	// Clock overrides time.Now.
	Clock func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Threshold:        DefaultThreshold,
		Timeout:          DefaultTimeout,
		HalfOpenRequests: DefaultHalfOpenRequests,
	}
}

// withDefaults fills zero fields from base.
func (o Options) withDefaults(base Options) Options {
	if o.Threshold <= 0 {
		o.Threshold = base.Threshold
	}
	if o.Timeout <= 0 {
		o.Timeout = base.Timeout
	}
	if o.HalfOpenRequests <= 0 {
		o.HalfOpenRequests = base.HalfOpenRequests
	}
	if o.IsExpected == nil {
		o.IsExpected = base.IsExpected
	}
	if o.Clock == nil {
		o.Clock = base.Clock
	}
	return o
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	Name        string    `json:"name"`
	State       State     `json:"state"`
	Failures    int       `json:"failures"`
	Successes   int       `json:"successes"`
	LastFailure time.Time `json:"last_failure,omitempty"`
}

type Breaker struct {
	name     string
	opts     Options
	log      logger.Logger
	onChange func(name string, from, to State)

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	inFlight    int
	lastFailure time.Time
}

func New(name string, opts Options, log logger.Logger) *Breaker {
	opts = opts.withDefaults(DefaultOptions())
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Breaker{name: name, opts: opts, log: log, state: StateClosed}
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:        b.name,
		State:       b.state,
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
	}
}

// Reset forces the circuit closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures, b.successes, b.inFlight = 0, 0, 0
	b.lastFailure = time.Time{}
	b.transition(StateClosed)
}

// Do runs fn through the breaker.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := Execute(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Execute runs fn through b and returns its result. While the circuit is open
// fn is not invoked and an *OpenError is returned.
func Execute[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	trial, err := b.allow()
	if err != nil {
		return zero, err
	}
	v, err := fn(ctx)
	b.record(trial, err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (b *Breaker) allow() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		elapsed := b.opts.Clock().Sub(b.lastFailure)
		if elapsed < b.opts.Timeout {
			return false, &OpenError{Name: b.name, RetryAfter: b.opts.Timeout - elapsed}
		}
		b.successes, b.inFlight = 0, 0
		b.transition(StateHalfOpen)
	}
	if b.state == StateHalfOpen {
		if b.inFlight >= b.opts.HalfOpenRequests {
			return false, &OpenError{Name: b.name, RetryAfter: time.Second}
		}
		b.inFlight++
		return true, nil
	}
	return false, nil
}

func (b *Breaker) record(trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial && b.inFlight > 0 {
		b.inFlight--
	}
	if err != nil && !b.counts(err) {
		b.log.Debugf("circuit [%s] ignoring expected error: %v", b.name, err)
		return
	}
	if err == nil {
		b.onSuccess(trial)
		return
	}
	b.onFailure(err)
}

func (b *Breaker) onSuccess(trial bool) {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		if !trial {
			return
		}
		b.successes++
		if b.successes >= b.opts.HalfOpenRequests {
			b.failures, b.successes = 0, 0
			b.transition(StateClosed)
		}
	}
}

func (b *Breaker) onFailure(err error) {
	b.lastFailure = b.opts.Clock()
	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.successes = 0
		b.log.Warnf("circuit [%s] trial call failed: %v", b.name, err)
		b.transition(StateOpen)
	case StateClosed:
		if b.failures >= b.opts.Threshold {
			b.log.Warnf("circuit [%s] reached %d failures, last: %v", b.name, b.failures, err)
			b.transition(StateOpen)
		}
	}
}

// transition must be called with mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.log.Infof("circuit [%s] %s -> %s", b.name, from, to)
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
