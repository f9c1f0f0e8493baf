package calendar

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

const (
	// productID identifies the exporting application.
	productID = "-//oshokin//alarm-clock//EN"
	// floatingLayout renders a local time without a zone.
	floatingLayout = "20060102T150405"
	// eventSummary is the title of the exported event.
	eventSummary = "Alarm"
	// eventLength is how long the exported event lasts.
	eventLength = time.Minute
)

// ErrNothingArmed is returned when no alarm is armed.
var ErrNothingArmed = errors.New("no alarm is armed")

// ruleWeekdays maps time.Weekday onto rrule weekdays.
//
//nolint:gochecknoglobals // Lookup table.
var ruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Rule returns the weekly recurrence of a repeating alarm starting at its
// next occurrence, or nil for a one-shot alarm.
func Rule(armed *domain.ArmedAlarm) *rrule.ROption {
	if !armed.Config.Repeating() {
		return nil
	}

	days := armed.Config.Weekdays.Days()
	byWeekday := make([]rrule.Weekday, 0, len(days))

	for _, d := range days {
		byWeekday = append(byWeekday, ruleWeekdays[d])
	}

	return &rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   armed.FireAt,
		Byweekday: byWeekday,
	}
}

// Upcoming returns at most count occurrences of the armed alarm, the first
// being its next delivery.
func Upcoming(armed *domain.ArmedAlarm, count int) ([]time.Time, error) {
	if armed == nil {
		return nil, ErrNothingArmed
	}

	if count <= 0 {
		return nil, nil
	}

	option := Rule(armed)
	if option == nil {
		return []time.Time{armed.FireAt}, nil
	}

	option.Count = count

	rule, err := rrule.NewRRule(*option)
	if err != nil {
		return nil, fmt.Errorf("build recurrence: %w", err)
	}

	return rule.All(), nil
}

// Export writes the armed alarm to w as a VCALENDAR with one VEVENT.
// Times are floating so the event follows the reader's local zone.
func Export(w io.Writer, armed *domain.ArmedAlarm, now time.Time) error {
	if armed == nil {
		return ErrNothingArmed
	}

	calendar := ical.NewCalendar()
	calendar.Props.SetText(ical.PropVersion, "2.0")
	calendar.Props.SetText(ical.PropProductID, productID)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, armed.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetText(ical.PropSummary, eventSummary)
	event.Props.Set(floating(ical.PropDateTimeStart, armed.FireAt))
	event.Props.Set(floating(ical.PropDateTimeEnd, armed.FireAt.Add(eventLength)))

	if armed.Config.HasSound() {
		event.Props.SetText(ical.PropDescription, "Sound: "+armed.Config.SoundRef)
	}

	if option := Rule(armed); option != nil {
		rule := ical.NewProp(ical.PropRecurrenceRule)
		rule.Value = option.RRuleString()
		event.Props.Set(rule)
	}

	event.Children = append(event.Children, audioAlarm())
	calendar.Children = append(calendar.Children, event.Component)

	if err := ical.NewEncoder(w).Encode(calendar); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}

	return nil
}

func floating(name string, t time.Time) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = t.Format(floatingLayout)

	return prop
}

// audioAlarm rings when the event starts.
func audioAlarm() *ical.Component {
	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "AUDIO")

	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "PT0S"
	alarm.Props.Set(trigger)

	return alarm
}
