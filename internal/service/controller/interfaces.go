package controller

import (
	"context"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/permission"
	"github.com/oshokin/alarm-clock/internal/service/power"
)

// Scheduler is the one-shot delivery primitive. Scheduling replaces any
// pending request.
type Scheduler interface {
	Schedule(at time.Time, payload domain.Payload) error
	Cancel()
}

// WakeLocker grants time-bounded wake resources.
type WakeLocker interface {
	Acquire(ctx context.Context, timeout time.Duration) (power.Lock, error)
}

// Playback is a running sound loop.
type Playback interface {
	Stop() error
}

// SoundPlayer starts looping sounds.
type SoundPlayer interface {
	Play(ctx context.Context, ref string) (Playback, error)
}

// Gate answers capability checks.
type Gate interface {
	Check(ctx context.Context, capability permission.Capability, ref string) error
}
