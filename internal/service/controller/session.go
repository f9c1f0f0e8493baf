package controller

import (
	"context"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/notify"
	"github.com/oshokin/alarm-clock/internal/service/power"
)

// session is a live alert and the resources it holds.
type session struct {
	// id identifies the session.
	id string
	// startedAt is when the delivery arrived.
	startedAt time.Time
	// fireAt is the instant the delivery was requested for.
	fireAt time.Time
	// wake is the wake grant, nil when none could be acquired.
	wake power.Lock
	// playback is the sound loop, nil for a silent alert.
	playback Playback
	// presentation is the visible alert, nil when suppressed.
	presentation notify.Presentation
	// timeout dismisses the session when the wake bound elapses.
	timeout *time.Timer
	// releaseOnce makes release safe to call from dismissal and timeout.
	releaseOnce sync.Once
}

// release stops the sound, closes the alert and ends the wake grant.
func (s *session) release(ctx context.Context) {
	s.releaseOnce.Do(func() {
		if s.timeout != nil {
			s.timeout.Stop()
		}

		if s.playback != nil {
			if err := s.playback.Stop(); err != nil {
				logger.WarnKV(ctx, "Failed to stop alarm sound", "session_id", s.id, "error", err)
			}
		}

		if s.presentation != nil {
			if err := s.presentation.Close(); err != nil {
				logger.WarnKV(ctx, "Failed to close alert", "session_id", s.id, "error", err)
			}
		}

		// The wake grant goes last so the screen stays on until the alert is gone.
		if s.wake != nil {
			if err := s.wake.Release(); err != nil {
				logger.WarnKV(ctx, "Failed to release wake lock", "session_id", s.id, "error", err)
			}
		}

		logger.InfoKV(ctx, "Alert session released", "session_id", s.id)
	})
}

// info returns the read model of the session.
func (s *session) info() *domain.SessionInfo {
	return &domain.SessionInfo{
		ID:           s.id,
		StartedAt:    s.startedAt,
		FireAt:       s.fireAt,
		SoundPlaying: s.playback != nil,
		WakeHeld:     s.wake != nil && s.wake.Held(),
		Presented:    s.presentation != nil,
	}
}
