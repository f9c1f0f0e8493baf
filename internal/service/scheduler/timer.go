package scheduler

import (
	"context"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// DefaultCheckInterval is the longest sleep between two wall-clock checks.
const DefaultCheckInterval = 30 * time.Second

// Handler receives the payload of a due request.
type Handler func(ctx context.Context, payload domain.Payload)

// Timer is a single-slot wall-clock timer. Scheduling replaces the pending
// request. The wait is split into slices of at most the check interval, so a
// suspended host or a clock change is noticed on the next slice.
type Timer struct {
	// ctx bounds every wait goroutine.
	ctx context.Context
	// interval is the longest slice of a wait.
	interval time.Duration
	// now reads the wall clock.
	now func() time.Time
	// handler receives due payloads.
	handler Handler
	// generation identifies the current request; older waits exit.
	generation uint64
	// pending is the payload of the current request.
	pending *domain.Payload
	// stop ends the current wait goroutine.
	stop context.CancelFunc
	// mu protects every field above.
	mu sync.Mutex
}

// Option customizes a Timer.
type Option func(*Timer)

// WithCheckInterval overrides the longest sleep between wall-clock checks.
func WithCheckInterval(interval time.Duration) Option {
	return func(t *Timer) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTimer creates a timer whose waits end when ctx is canceled.
func NewTimer(ctx context.Context, opts ...Option) *Timer {
	t := &Timer{
		ctx:      ctx,
		interval: DefaultCheckInterval,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// SetHandler registers the receiver of due payloads.
func (t *Timer) SetHandler(handler Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handler = handler
}

// Schedule requests one delivery of payload at the given instant, replacing
// any pending request. An instant in the past is delivered right away.
func (t *Timer) Schedule(at time.Time, payload domain.Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()

	if err := t.ctx.Err(); err != nil {
		return err
	}

	t.generation++
	t.pending = &payload

	ctx, stop := context.WithCancel(t.ctx)
	t.stop = stop

	go t.wait(ctx, t.generation, at, payload)

	return nil
}

// Cancel drops the pending request, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
}

// Pending returns the payload of the pending request.
func (t *Timer) Pending() (domain.Payload, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return domain.Payload{}, false
	}

	return *t.pending, true
}

func (t *Timer) cancelLocked() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}

	t.generation++
	t.pending = nil
}

// wait sleeps until at and then delivers the payload if the request is still current.
func (t *Timer) wait(ctx context.Context, generation uint64, at time.Time, payload domain.Payload) {
	for {
		remaining := at.Sub(t.now())
		if remaining <= 0 {
			break
		}

		timer := time.NewTimer(min(remaining, t.interval))

		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
		}
	}

	t.mu.Lock()

	if generation != t.generation {
		t.mu.Unlock()

		return
	}

	handler, stop := t.handler, t.stop
	t.pending = nil
	t.stop = nil
	t.mu.Unlock()

	// The request is complete; the handler runs on the timer context.
	stop()

	if handler == nil {
		logger.WarnKV(t.ctx, "Delivery dropped, no handler registered", "alarm_id", payload.AlarmID)

		return
	}

	handler(t.ctx, payload)
}
