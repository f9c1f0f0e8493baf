package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Alert is what the user is shown while an alarm rings.
type Alert struct {
	// SessionID identifies the alert session.
	SessionID string
	// Title is the headline, e.g. "Alarm".
	Title string
	// Body is the detail line, e.g. "It is 07:00".
	Body string
	// FireAt is when the alarm was due.
	FireAt time.Time
}

// NewAlert builds the alert shown for a delivery.
func NewAlert(sessionID string, fireAt time.Time) Alert {
	return Alert{
		SessionID: sessionID,
		Title:     "Alarm",
		Body:      "It is " + fireAt.Format("15:04") + ". Time to wake up!",
		FireAt:    fireAt,
	}
}

// Presentation is a visible alert surface.
type Presentation interface {
	// Close removes the surface. Calling it more than once is safe.
	Close() error
}

// Presenter shows alerts. onDismiss is called at most once, when the user
// dismisses the alert from the surface itself.
type Presenter interface {
	Present(ctx context.Context, alert Alert, onDismiss func()) (Presentation, error)
}

// Redundant shows the alert on a primary surface and a fallback surface.
type Redundant struct {
	// primary is tried first; nil disables it.
	primary Presenter
	// fallback is started when the primary fails or always with alwaysLaunch.
	fallback Presenter
	// alwaysLaunch starts the fallback even when the primary succeeded.
	alwaysLaunch bool
}

// NewRedundant combines two presenters. Either may be nil.
func NewRedundant(primary, fallback Presenter, alwaysLaunch bool) *Redundant {
	return &Redundant{
		primary:      primary,
		fallback:     fallback,
		alwaysLaunch: alwaysLaunch,
	}
}

// Present shows the alert on every applicable surface. It fails only when
// no surface could be shown.
func (r *Redundant) Present(ctx context.Context, alert Alert, onDismiss func()) (Presentation, error) {
	var (
		surfaces multiPresentation
		errs     []error
	)

	if r.primary != nil {
		p, err := r.primary.Present(ctx, alert, onDismiss)
		if err != nil {
			logger.WarnKV(ctx, "Notification suppressed", "session_id", alert.SessionID, "error", err)

			errs = append(errs, err)
		} else {
			surfaces = append(surfaces, p)
		}
	}

	if r.fallback != nil && (r.alwaysLaunch || len(surfaces) == 0) {
		p, err := r.fallback.Present(ctx, alert, onDismiss)
		if err != nil {
			logger.WarnKV(ctx, "Alert window failed to start", "session_id", alert.SessionID, "error", err)

			errs = append(errs, err)
		} else {
			surfaces = append(surfaces, p)
		}
	}

	if len(surfaces) == 0 {
		return nil, fmt.Errorf("no alert surface: %w", errors.Join(append(errs, domain.ErrPresentationSuppressed)...))
	}

	return surfaces, nil
}

// multiPresentation closes several surfaces together.
type multiPresentation []Presentation

func (m multiPresentation) Close() error {
	var errs []error

	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
