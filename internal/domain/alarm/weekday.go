package alarm

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a set of enabled weekdays, one bit per time.Weekday
// (Sunday is bit 0, Saturday is bit 6).
type WeekdaySet uint8

const (
	// EveryDay contains all seven weekdays.
	EveryDay WeekdaySet = 1<<7 - 1
	// WorkDays contains Monday through Friday.
	WorkDays = EveryDay &^ (1<<time.Sunday | 1<<time.Saturday)
	// Weekend contains Saturday and Sunday.
	Weekend = EveryDay &^ WorkDays
)

// shortDayNames are indexed by time.Weekday.
//
//nolint:gochecknoglobals // Lookup table.
var shortDayNames = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet

	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			continue
		}

		s |= 1 << d
	}

	return s
}

// Has reports whether the weekday is enabled.
func (s WeekdaySet) Has(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}

	return s&(1<<d) != 0
}

// IsEmpty reports whether no weekday is enabled (one-shot alarm).
func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Valid reports whether the set only contains Sunday..Saturday bits.
func (s WeekdaySet) Valid() bool {
	return s&^EveryDay == 0
}

// Days returns the enabled weekdays starting from Sunday.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(shortDayNames))

	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}

	return days
}

// Ordinals returns the enabled weekdays as 1-based numbers, Sunday is 1 and
// Saturday is 7. This is the persisted "selected_days" representation.
func (s WeekdaySet) Ordinals() []int {
	days := s.Days()
	result := make([]int, 0, len(days))

	for _, d := range days {
		result = append(result, int(d)+1)
	}

	return result
}

// String renders the set as a comma separated list of short day names.
func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, 0, len(days))

	for _, d := range days {
		names = append(names, shortDayNames[d])
	}

	return strings.Join(names, ",")
}

// WeekdaySetFromOrdinals converts 1-based weekday numbers back into a set.
func WeekdaySetFromOrdinals(ordinals []int) (WeekdaySet, error) {
	var s WeekdaySet

	for _, o := range ordinals {
		if o < 1 || o > 7 {
			return 0, fmt.Errorf("weekday ordinal %d out of range 1..7: %w", o, ErrInvalidConfig)
		}

		s |= 1 << (o - 1)
	}

	return s, nil
}

// ParseWeekdays parses a comma separated list of day names. Besides day names
// ("mon", "Monday") it accepts the shortcuts "daily", "weekdays" and "weekends".
// An empty string or "none" yields an empty set.
func ParseWeekdays(value string) (WeekdaySet, error) {
	var s WeekdaySet

	for _, token := range strings.Split(value, ",") {
		token = strings.ToLower(strings.TrimSpace(token))

		switch token {
		case "", "none":
			continue
		case "daily", "everyday", "all":
			s |= EveryDay

			continue
		case "weekdays", "workdays":
			s |= WorkDays

			continue
		case "weekends", "weekend":
			s |= Weekend

			continue
		}

		d, ok := parseDayName(token)
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q: %w", token, ErrInvalidConfig)
		}

		s |= 1 << d
	}

	return s, nil
}

// parseDayName matches short ("mon") and full ("monday") day names.
func parseDayName(token string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if token == shortDayNames[d] || token == strings.ToLower(d.String()) {
			return d, true
		}
	}

	return 0, false
}
