package alarm

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of the single alarm slot.
type State int

const (
	// StateIdle means nothing is armed and no alert is live.
	StateIdle State = iota
	// StateArmed means a delivery is scheduled for ArmedAlarm.FireAt.
	StateArmed
	// StateFiring means the delivery arrived and the alert is being built.
	StateFiring
	// StateActive means the alert session is live and awaits dismissal.
	StateActive
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFiring:
		return "firing"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState converts a state name back into a State.
func ParseState(value string) (State, bool) {
	for s := StateIdle; s <= StateActive; s++ {
		if strings.EqualFold(value, s.String()) {
			return s, true
		}
	}

	return StateIdle, false
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateArmed || to == StateFiring
	case StateArmed:
		return to == StateArmed || to == StateIdle || to == StateFiring
	case StateFiring:
		return to == StateActive
	case StateActive:
		// A new delivery during an active alert replaces the session.
		return to == StateIdle || to == StateArmed || to == StateFiring
	default:
		return false
	}
}

// ArmedAlarm is the one scheduled delivery request.
type ArmedAlarm struct {
	// ID identifies this arming; deliveries carry it back.
	ID string
	// FireAt is the instant the delivery was requested for.
	FireAt time.Time
	// ArmedAt is when the request was made.
	ArmedAt time.Time
	// ArmedBy is who confirmed the configuration, nil for automatic re-arms.
	ArmedBy *Actor
	// Config is the configuration snapshot the instant was computed from.
	Config Config
}

// Clone returns a deep copy of the armed alarm.
func (a *ArmedAlarm) Clone() *ArmedAlarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.ArmedBy = a.ArmedBy.Clone()

	return &cloned
}

// Payload returns what the delivery primitive carries for this alarm.
func (a *ArmedAlarm) Payload() Payload {
	return Payload{
		AlarmID:  a.ID,
		FireAt:   a.FireAt,
		SoundRef: a.Config.SoundRef,
	}
}

// Payload is handed to the delivery primitive and returned on delivery.
type Payload struct {
	// AlarmID is the ArmedAlarm.ID the delivery belongs to.
	AlarmID string
	// FireAt is the requested delivery instant.
	FireAt time.Time
	// SoundRef is the sound to loop, empty for a silent alert.
	SoundRef string
}

// Record is the persisted document the controller is resumed from.
type Record struct {
	// Config is the last confirmed configuration.
	Config *Config
	// Armed is the pending delivery, nil when nothing is armed.
	Armed *ArmedAlarm
	// LastFiredAt is when the most recent alert started.
	LastFiredAt time.Time
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	return &Record{
		Config:      r.Config.Clone(),
		Armed:       r.Armed.Clone(),
		LastFiredAt: r.LastFiredAt,
	}
}

// SessionInfo describes a live alert session.
type SessionInfo struct {
	// ID identifies the session.
	ID string
	// StartedAt is when the delivery arrived.
	StartedAt time.Time
	// FireAt is the instant the delivery was requested for.
	FireAt time.Time
	// SoundPlaying is true when the audio loop started.
	SoundPlaying bool
	// WakeHeld is true while the wake resource is held.
	WakeHeld bool
	// Presented is true when at least one alert surface is showing.
	Presented bool
}

// Snapshot is the read model of the controller.
type Snapshot struct {
	// State is the lifecycle state.
	State State
	// Config is the last confirmed configuration.
	Config *Config
	// Armed is the pending delivery.
	Armed *ArmedAlarm
	// Session is the live alert session.
	Session *SessionInfo
	// LastFiredAt is when the most recent alert started.
	LastFiredAt time.Time
}
