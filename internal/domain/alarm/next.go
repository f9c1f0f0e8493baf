package alarm

import (
	"fmt"
	"time"
)

// searchWindowDays is the number of days after today that are tried when
// weekdays are set. Eight candidates (today plus seven) let today's weekday be
// retried next week once its time has passed.
const searchWindowDays = 7

// UnschedulableMessage is the status shown when no occurrence can be found.
const UnschedulableMessage = "Could not set alarm."

// Result is the outcome of ComputeNext.
type Result struct {
	// FireAt is the next occurrence.
	FireAt time.Time
	// SameDay is true when FireAt falls on the calendar day of now.
	SameDay bool
	// Message is a human-readable status line.
	Message string
}

// ComputeNext returns the next instant strictly after now at which an alarm
// configured with tod and days must fire.
//
// With no weekdays the alarm fires today at tod, or tomorrow when that moment
// is not after now. With weekdays the first of today..today+7 whose weekday is
// enabled and whose instant is after now wins. ErrUnschedulable is returned
// when no candidate matches.
func ComputeNext(tod TimeOfDay, days WeekdaySet, now time.Time) (Result, error) {
	candidate := tod.On(now)

	if days.IsEmpty() {
		if !candidate.After(now) {
			candidate = tod.On(now.AddDate(0, 0, 1))
		}

		return newResult(candidate, now), nil
	}

	for i := 0; i <= searchWindowDays; i++ {
		candidate = tod.On(now.AddDate(0, 0, i))

		if days.Has(candidate.Weekday()) && candidate.After(now) {
			return newResult(candidate, now), nil
		}
	}

	return Result{Message: UnschedulableMessage}, ErrUnschedulable
}

// newResult fills in the same-day flag and the status message.
func newResult(fireAt, now time.Time) Result {
	offset := dayOffset(now, fireAt)

	var when string

	switch offset {
	case 0:
		when = "today"
	case 1:
		when = "tomorrow"
	default:
		when = fireAt.Format("Monday, Jan 2")
	}

	return Result{
		FireAt:  fireAt,
		SameDay: offset == 0,
		Message: fmt.Sprintf("Alarm set for %s at %s.", when, fireAt.Format("15:04")),
	}
}

// dayOffset counts calendar days from a to b, ignoring the time of day and
// daylight saving shifts.
func dayOffset(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()

	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	return int(end.Sub(start).Hours() / 24)
}

// FormatNext renders the "Next alarm" status line shown to the user.
func FormatNext(fireAt time.Time) string {
	if fireAt.IsZero() {
		return "No alarm set"
	}

	return "Next alarm: " + fireAt.Format("Mon, Jan 2, 3:04 PM")
}
