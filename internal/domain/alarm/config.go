package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	// Hour is in the range 0..23.
	Hour int
	// Minute is in the range 0..59.
	Minute int
}

// ParseTimeOfDay parses "H:MM", "HH:MM" or "HHMM".
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)

	var hourPart, minutePart string

	switch {
	case strings.Contains(value, ":"):
		hourPart, minutePart, _ = strings.Cut(value, ":")
	case len(value) == 4:
		hourPart, minutePart = value[:2], value[2:]
	default:
		return TimeOfDay{}, fmt.Errorf("time %q must look like HH:MM: %w", value, ErrInvalidConfig)
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse hour %q: %w", hourPart, ErrInvalidConfig)
	}

	minute, err := strconv.Atoi(minutePart)
	if err != nil || len(minutePart) != 2 {
		return TimeOfDay{}, fmt.Errorf("parse minute %q: %w", minutePart, ErrInvalidConfig)
	}

	t := TimeOfDay{Hour: hour, Minute: minute}
	if err = t.Validate(); err != nil {
		return TimeOfDay{}, err
	}

	return t, nil
}

// Validate checks hour and minute ranges.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0..23: %w", t.Hour, ErrInvalidConfig)
	}

	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0..59: %w", t.Minute, ErrInvalidConfig)
	}

	return nil
}

// On returns the instant at this time of day on the calendar date of day,
// in day's location. Seconds and nanoseconds are zero.
func (t TimeOfDay) On(day time.Time) time.Time {
	year, month, date := day.Date()

	return time.Date(year, month, date, t.Hour, t.Minute, 0, 0, day.Location())
}

// String renders the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Config is the user's alarm configuration. It is an immutable value and is
// replaced wholesale on every reconfiguration.
type Config struct {
	// Time is the wake time.
	Time TimeOfDay
	// Weekdays are the repeat days; empty means the next occurrence only.
	Weekdays WeekdaySet
	// SoundRef is an opaque sound resource reference, empty for no sound.
	SoundRef string
}

// Validate checks the time and the weekday set.
func (c *Config) Validate() error {
	if err := c.Time.Validate(); err != nil {
		return err
	}

	if !c.Weekdays.Valid() {
		return fmt.Errorf("weekday set %#x has unknown days: %w", uint8(c.Weekdays), ErrInvalidConfig)
	}

	return nil
}

// HasSound reports whether a sound resource is configured.
func (c *Config) HasSound() bool {
	return NormalizeSoundRef(c.SoundRef) != ""
}

// Repeating reports whether the alarm repeats on weekdays.
func (c *Config) Repeating() bool {
	return !c.Weekdays.IsEmpty()
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	cloned := *c

	return &cloned
}

// NormalizeSoundRef maps the "no sound" spellings ("", "none", "null") to "".
func NormalizeSoundRef(ref string) string {
	ref = strings.TrimSpace(ref)

	switch strings.ToLower(ref) {
	case "", "none", "null":
		return ""
	default:
		return ref
	}
}
