package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	repo "github.com/oshokin/alarm-clock/internal/repository/state"
	"github.com/oshokin/alarm-clock/internal/service/notify"
	"github.com/oshokin/alarm-clock/internal/service/permission"
)

// Defaults applied when Options leave a field empty.
const (
	// DefaultWakeTimeout bounds the wake grant and the alert session.
	DefaultWakeTimeout = 10 * time.Minute
	// DefaultMissedGrace is how late a delivery found on resume may still fire.
	DefaultMissedGrace = 10 * time.Minute
	// DefaultStartTimeout bounds how long a delivery waits for the sound and
	// the alert surfaces to start.
	DefaultStartTimeout = 30 * time.Second
)

// Options tunes the controller.
type Options struct {
	// WakeTimeout bounds the wake grant; the session is dismissed when it elapses.
	WakeTimeout time.Duration
	// MissedGrace is how late a delivery found on resume may still fire.
	MissedGrace time.Duration
	// StartTimeout bounds the wait for the sound and the alert surfaces.
	StartTimeout time.Duration
	// RearmOnFire re-arms a weekday schedule as soon as it fires. It also
	// decides whether Resume re-arms a repeating alarm missed beyond the grace.
	RearmOnFire bool
	// Now reads the wall clock.
	Now func() time.Time
	// NewID generates alarm and session identifiers.
	NewID func() string
}

// Dependencies are the collaborators of the controller.
type Dependencies struct {
	// Repository persists the record; nil keeps everything in memory.
	Repository repo.Repository
	// Scheduler delivers the armed alarm.
	Scheduler Scheduler
	// Wake keeps the host awake during an alert.
	Wake WakeLocker
	// Sound loops the alarm sound.
	Sound SoundPlayer
	// Presenter shows the alert.
	Presenter notify.Presenter
	// Gate answers capability checks.
	Gate Gate
}

// errMissingDependency is returned when a required collaborator is nil.
var errMissingDependency = errors.New("missing controller dependency")

// Controller owns the single alarm slot. Arm, Deliver, Dismiss and Resume
// are the only operations that change it.
type Controller struct {
	// deps are the collaborators.
	deps Dependencies
	// opts are the tuning options with defaults applied.
	opts Options

	// state is the lifecycle state.
	state domain.State
	// config is the last confirmed configuration.
	config *domain.Config
	// armed is the pending delivery.
	armed *domain.ArmedAlarm
	// session is the live alert.
	session *session
	// lastFiredAt is when the most recent alert started.
	lastFiredAt time.Time
	// mu protects the slot fields above.
	mu sync.Mutex
}

// New creates a controller in the Idle state. Call Resume to restore the
// persisted record.
func New(deps Dependencies, opts Options) (*Controller, error) {
	if deps.Scheduler == nil || deps.Wake == nil || deps.Sound == nil || deps.Presenter == nil || deps.Gate == nil {
		return nil, errMissingDependency
	}

	if opts.WakeTimeout <= 0 {
		opts.WakeTimeout = DefaultWakeTimeout
	}

	if opts.MissedGrace <= 0 {
		opts.MissedGrace = DefaultMissedGrace
	}

	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Controller{
		deps:  deps,
		opts:  opts,
		state: domain.StateIdle,
	}, nil
}

// Preview computes the next occurrence of cfg without side effects.
func (c *Controller) Preview(cfg domain.Config) (domain.Result, error) {
	if err := cfg.Validate(); err != nil {
		return domain.Result{}, err
	}

	return domain.ComputeNext(cfg.Time, cfg.Weekdays, c.opts.Now())
}

// Arm schedules the next occurrence of cfg, replacing any armed alarm.
// A denied capability, an unschedulable configuration or a persistence
// failure leave the slot unchanged.
func (c *Controller) Arm(ctx context.Context, cfg domain.Config, actor *domain.Actor) (*domain.ArmedAlarm, domain.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, domain.Result{}, err
	}

	cfg.SoundRef = domain.NormalizeSoundRef(cfg.SoundRef)

	// Capability checks may talk to the session bus, so they run unlocked.
	if err := c.checkPermissions(ctx, &cfg); err != nil {
		logger.WarnKV(ctx, "Alarm not armed", "actor", actor, "error", err)

		return nil, domain.Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	armed, result, err := c.armLocked(ctx, cfg, actor, c.opts.Now())
	if err != nil {
		return nil, result, err
	}

	logger.InfoKV(ctx, "Alarm armed",
		"alarm_id", armed.ID,
		"fire_at", armed.FireAt,
		"weekdays", cfg.Weekdays.String(),
		"actor", actor,
	)

	return armed.Clone(), result, nil
}

// checkPermissions runs the capability gates for cfg.
func (c *Controller) checkPermissions(ctx context.Context, cfg *domain.Config) error {
	if err := c.deps.Gate.Check(ctx, permission.ExactAlarm, ""); err != nil {
		return err
	}

	if err := c.deps.Gate.Check(ctx, permission.Notifications, ""); err != nil {
		return err
	}

	if cfg.HasSound() {
		if err := c.deps.Gate.Check(ctx, permission.AudioAccess, cfg.SoundRef); err != nil {
			return err
		}
	}

	return nil
}

// armLocked computes, persists and schedules the next occurrence after now.
func (c *Controller) armLocked(
	ctx context.Context,
	cfg domain.Config,
	actor *domain.Actor,
	now time.Time,
) (*domain.ArmedAlarm, domain.Result, error) {
	result, err := domain.ComputeNext(cfg.Time, cfg.Weekdays, now)
	if err != nil {
		return nil, result, err
	}

	armed := &domain.ArmedAlarm{
		ID:      c.opts.NewID(),
		FireAt:  result.FireAt,
		ArmedAt: c.opts.Now(),
		ArmedBy: actor.Clone(),
		Config:  cfg,
	}

	previous := c.recordLocked()

	next := previous.Clone()
	next.Config = cfg.Clone()
	next.Armed = armed

	if err = c.saveLocked(ctx, next); err != nil {
		return nil, result, err
	}

	if err = c.deps.Scheduler.Schedule(armed.FireAt, armed.Payload()); err != nil {
		// Put the previous record back so a restart does not resume an alarm
		// that was never scheduled.
		if rollbackErr := c.saveLocked(ctx, previous); rollbackErr != nil {
			logger.ErrorKV(ctx, "Failed to restore alarm record", "error", rollbackErr)
		}

		return nil, result, fmt.Errorf("schedule delivery: %w", err)
	}

	c.config = cfg.Clone()
	c.armed = armed

	if c.state == domain.StateIdle {
		c.setStateLocked(ctx, domain.StateArmed)
	}

	return armed, result, nil
}

// Deliver runs an alert session for payload. It is the entry point of the
// delivery primitive and needs nothing but the payload.
func (c *Controller) Deliver(ctx context.Context, payload domain.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.armed != nil && payload.AlarmID != c.armed.ID {
		logger.WarnKV(ctx, "Stale delivery ignored", "alarm_id", payload.AlarmID, "armed_id", c.armed.ID)

		return
	}

	now := c.opts.Now()

	// A new delivery replaces a live session.
	if c.session != nil {
		logger.InfoKV(ctx, "Replacing live alert session", "session_id", c.session.id)

		c.session.release(ctx)
		c.session = nil
	}

	c.setStateLocked(ctx, domain.StateFiring)

	s := &session{
		id:        c.opts.NewID(),
		startedAt: now,
		fireAt:    payload.FireAt,
	}

	ctx = logger.WithKV(ctx, "session_id", s.id)

	logger.InfoKV(ctx, "Alarm firing", "alarm_id", payload.AlarmID, "fire_at", payload.FireAt)

	// The wake grant comes first so the alert is shown on a lit screen.
	lock, err := c.deps.Wake.Acquire(ctx, c.opts.WakeTimeout)
	if err != nil {
		logger.WarnKV(ctx, "Failed to acquire wake lock", "error", err)
	} else {
		s.wake = lock
	}

	c.startAlert(ctx, s, payload)

	sessionID := s.id
	s.timeout = time.AfterFunc(c.opts.WakeTimeout, func() {
		c.dismissSession(context.WithoutCancel(ctx), sessionID, "wake timeout elapsed")
	})

	c.session = s
	c.lastFiredAt = now
	c.setStateLocked(ctx, domain.StateActive)

	fired := c.armed
	c.armed = nil

	c.rearmLocked(ctx, fired, payload, now)

	if err = c.saveLocked(ctx, c.recordLocked()); err != nil {
		logger.ErrorKV(ctx, "Failed to persist fired alarm", "error", err)
	}
}

// startAlert starts the sound and the alert surfaces side by side. A failure
// or panic in one does not affect the other. The wait is bounded by
// StartTimeout; whatever starts later is handed to adoptLate.
func (c *Controller) startAlert(ctx context.Context, s *session, payload domain.Payload) {
	startCtx, cancel := context.WithTimeout(ctx, c.opts.StartTimeout)
	defer cancel()

	var (
		sounds  chan Playback
		shown   = make(chan notify.Presentation, 1)
		pending = 1
	)

	if ref := domain.NormalizeSoundRef(payload.SoundRef); ref != "" {
		sounds = make(chan Playback, 1)
		pending++

		go func() {
			var playback Playback

			err := safely(func() error {
				var err error

				playback, err = c.deps.Sound.Play(startCtx, ref)

				return err
			})
			if err != nil {
				logger.WarnKV(ctx, "Alarm will ring without sound",
					"error", fmt.Errorf("%w: %w", domain.ErrPlaybackFailure, err))
			}

			sounds <- playback
		}()
	}

	go func() {
		var presentation notify.Presentation

		sessionID := s.id
		onDismiss := func() {
			go c.dismissSession(context.WithoutCancel(ctx), sessionID, "dismissed from alert")
		}

		err := safely(func() error {
			var err error

			presentation, err = c.deps.Presenter.Present(startCtx, notify.NewAlert(sessionID, payload.FireAt), onDismiss)

			return err
		})
		if err != nil {
			logger.WarnKV(ctx, "Alert is not visible",
				"error", fmt.Errorf("%w: %w", domain.ErrPresentationSuppressed, err))
		}

		shown <- presentation
	}()

	for pending > 0 {
		select {
		case playback := <-sounds:
			s.playback = playback
			sounds = nil
			pending--
		case presentation := <-shown:
			s.presentation = presentation
			shown = nil
			pending--
		case <-startCtx.Done():
			logger.WarnKV(ctx, "Alert start timed out", "timeout", c.opts.StartTimeout)

			go c.adoptLate(context.WithoutCancel(ctx), s, sounds, shown)

			return
		}
	}
}

// adoptLate attaches resources that started after the start timeout to s
// while it is still the live session, and releases them otherwise.
func (c *Controller) adoptLate(ctx context.Context, s *session, sounds <-chan Playback, shown <-chan notify.Presentation) {
	if sounds != nil {
		playback := <-sounds

		c.mu.Lock()
		if playback != nil && c.session == s {
			s.playback = playback
			playback = nil
		}
		c.mu.Unlock()

		if playback != nil {
			if err := playback.Stop(); err != nil {
				logger.WarnKV(ctx, "Failed to stop late alarm sound", "error", err)
			}
		}
	}

	if shown != nil {
		presentation := <-shown

		c.mu.Lock()
		if presentation != nil && c.session == s {
			s.presentation = presentation
			presentation = nil
		}
		c.mu.Unlock()

		if presentation != nil {
			if err := presentation.Close(); err != nil {
				logger.WarnKV(ctx, "Failed to close late alert", "error", err)
			}
		}
	}
}

// rearmLocked arms the next weekday occurrence of the fired alarm.
func (c *Controller) rearmLocked(ctx context.Context, fired *domain.ArmedAlarm, payload domain.Payload, now time.Time) {
	if !c.opts.RearmOnFire || fired == nil || !fired.Config.Repeating() {
		return
	}

	// A late delivery must not re-arm an instant that already passed.
	base := payload.FireAt
	if now.After(base) {
		base = now
	}

	armed, _, err := c.armLocked(ctx, fired.Config, nil, base)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to re-arm repeating alarm", "error", err)

		return
	}

	logger.InfoKV(ctx, "Repeating alarm re-armed", "alarm_id", armed.ID, "fire_at", armed.FireAt)
}

// Dismiss ends the live alert session. Without a live session it does nothing.
func (c *Controller) Dismiss(ctx context.Context, actor *domain.Actor) domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		logger.DebugKV(ctx, "Dismiss without live alert", "actor", actor)

		return c.snapshotLocked()
	}

	logger.InfoKV(ctx, "Alarm dismissed", "session_id", c.session.id, "actor", actor)

	c.endSessionLocked(ctx)

	return c.snapshotLocked()
}

// dismissSession ends the session only if it is still the live one.
func (c *Controller) dismissSession(ctx context.Context, sessionID, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.id != sessionID {
		return
	}

	logger.InfoKV(ctx, "Alarm dismissed", "session_id", sessionID, "reason", reason)

	c.endSessionLocked(ctx)
}

func (c *Controller) endSessionLocked(ctx context.Context) {
	c.session.release(ctx)
	c.session = nil

	if c.armed != nil {
		c.setStateLocked(ctx, domain.StateArmed)
	} else {
		c.setStateLocked(ctx, domain.StateIdle)
	}
}

// Resume restores the persisted record after a restart. A future alarm is
// scheduled again and a recently missed one fires now. An older one is
// re-armed when it repeats and RearmOnFire is set, or dropped otherwise.
func (c *Controller) Resume(ctx context.Context) error {
	if c.deps.Repository == nil {
		return nil
	}

	record, err := c.deps.Repository.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		logger.Info(ctx, "No saved alarm, starting idle")

		return nil
	default:
		return fmt.Errorf("load alarm record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = record.Config.Clone()
	c.lastFiredAt = record.LastFiredAt

	armed := record.Armed
	if armed == nil {
		return nil
	}

	now := c.opts.Now()

	switch {
	case now.Sub(armed.FireAt) <= c.opts.MissedGrace:
		// Future or recently missed; a past instant is delivered right away.
		if err = c.deps.Scheduler.Schedule(armed.FireAt, armed.Payload()); err != nil {
			return fmt.Errorf("schedule delivery: %w", err)
		}

		c.armed = armed.Clone()
		c.setStateLocked(ctx, domain.StateArmed)

		logger.InfoKV(ctx, "Alarm resumed", "alarm_id", armed.ID, "fire_at", armed.FireAt)
	case armed.Config.Repeating() && c.opts.RearmOnFire:
		logger.WarnKV(ctx, "Missed repeating alarm, arming the next occurrence", "missed_at", armed.FireAt)

		next, _, err := c.armLocked(ctx, armed.Config, armed.ArmedBy, now)
		if err != nil {
			return fmt.Errorf("re-arm missed alarm: %w", err)
		}

		logger.InfoKV(ctx, "Alarm resumed", "alarm_id", next.ID, "fire_at", next.FireAt)
	default:
		logger.WarnKV(ctx, "Missed alarm dropped", "missed_at", armed.FireAt, "repeating", armed.Config.Repeating())

		if err = c.saveLocked(ctx, c.recordLocked()); err != nil {
			return err
		}
	}

	return nil
}

// Snapshot returns the current state for clients.
func (c *Controller) Snapshot(_ context.Context) domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Shutdown releases a live session and cancels the pending delivery. The
// persisted record is kept so the next start resumes it.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deps.Scheduler.Cancel()

	if c.session != nil {
		c.session.release(ctx)
		c.session = nil
	}
}

func (c *Controller) snapshotLocked() domain.Snapshot {
	snapshot := domain.Snapshot{
		State:       c.state,
		Config:      c.config.Clone(),
		Armed:       c.armed.Clone(),
		LastFiredAt: c.lastFiredAt,
	}

	if c.session != nil {
		snapshot.Session = c.session.info()
	}

	return snapshot
}

// recordLocked returns the persisted view of the slot.
func (c *Controller) recordLocked() *domain.Record {
	return &domain.Record{
		Config:      c.config.Clone(),
		Armed:       c.armed.Clone(),
		LastFiredAt: c.lastFiredAt,
	}
}

func (c *Controller) saveLocked(ctx context.Context, record *domain.Record) error {
	if c.deps.Repository == nil {
		return nil
	}

	if err := c.deps.Repository.Save(ctx, record); err != nil {
		return fmt.Errorf("persist alarm record: %w", err)
	}

	return nil
}

func (c *Controller) setStateLocked(ctx context.Context, next domain.State) {
	if c.state == next {
		return
	}

	if !domain.CanTransition(c.state, next) {
		logger.ErrorKV(ctx, "Unexpected state transition", "from", c.state, "to", next)
	}

	logger.DebugKV(ctx, "State changed", "from", c.state, "to", next)

	c.state = next
}

// safely runs fn and turns a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()

	return fn()
}
