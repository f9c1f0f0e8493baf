package permission

import (
	"context"
	"errors"
	"fmt"
	"os"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/audio"
)

// Capability is a host permission the alarm depends on.
type Capability int

const (
	// ExactAlarm allows delivering at an exact wall-clock instant.
	ExactAlarm Capability = iota
	// Notifications allows showing the alert.
	Notifications
	// AudioAccess allows reading the configured sound.
	AudioAccess
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case ExactAlarm:
		return "exact alarm"
	case Notifications:
		return "notifications"
	case AudioAccess:
		return "audio access"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// ProbeFunc checks that an alert surface is usable.
type ProbeFunc func(ctx context.Context) error

// HostGate grants capabilities according to the settings and the host.
type HostGate struct {
	// exactAlarms is the configured exact scheduling grant.
	exactAlarms bool
	// probes are the alert surfaces; one usable surface is enough.
	probes []ProbeFunc
}

// NewHostGate creates a gate. Notifications are granted when any probe passes,
// or unconditionally when no probe is given.
func NewHostGate(exactAlarms bool, probes ...ProbeFunc) *HostGate {
	return &HostGate{
		exactAlarms: exactAlarms,
		probes:      probes,
	}
}

// Check returns nil when the capability is granted and an error wrapping
// domain.ErrPermissionDenied otherwise. ref is the sound for AudioAccess.
func (g *HostGate) Check(ctx context.Context, capability Capability, ref string) error {
	switch capability {
	case ExactAlarm:
		if !g.exactAlarms {
			return deny(capability, errors.New("disabled in settings"))
		}

		return nil
	case Notifications:
		return g.checkNotifications(ctx)
	case AudioAccess:
		return checkSound(ref)
	default:
		return deny(capability, errors.New("unknown capability"))
	}
}

func (g *HostGate) checkNotifications(ctx context.Context) error {
	if len(g.probes) == 0 {
		return nil
	}

	errs := make([]error, 0, len(g.probes))

	for _, probe := range g.probes {
		err := probe(ctx)
		if err == nil {
			return nil
		}

		errs = append(errs, err)
	}

	return deny(Notifications, errors.Join(errs...))
}

// checkSound requires a readable regular file behind ref.
func checkSound(ref string) error {
	path, err := audio.ResolvePath(ref)
	if err != nil {
		return deny(AudioAccess, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return deny(AudioAccess, err)
	}

	if !info.Mode().IsRegular() {
		return deny(AudioAccess, fmt.Errorf("%s is not a regular file", path))
	}

	f, err := os.Open(path) //nolint:gosec // The path is the user's own sound.
	if err != nil {
		return deny(AudioAccess, err)
	}

	return f.Close()
}

func deny(capability Capability, cause error) error {
	return fmt.Errorf("%s: %w: %w", capability, domain.ErrPermissionDenied, cause)
}
