package state

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Field names of the persisted document. The configuration keys keep the
// names earlier releases wrote to the settings table.
const (
	keyHour         = "hour"
	keyMinute       = "minute"
	keySelectedDays = "selected_days"
	keyMusicURI     = "music_uri"
	keyArmed        = "armed"
	keyLastFiredAt  = "last_fired_at"

	keyAlarmID  = "id"
	keyFireAt   = "fire_at"
	keyArmedAt  = "armed_at"
	keyArmedBy  = "armed_by"
	keyHostname = "hostname"
	keyUsername = "username"
)

var errMalformedRecord = errors.New("malformed record")

// configFields renders a configuration as document fields.
func configFields(cfg *domain.Config) map[string]any {
	ordinals := cfg.Weekdays.Ordinals()
	days := make([]any, 0, len(ordinals))

	for _, o := range ordinals {
		days = append(days, o)
	}

	return map[string]any{
		keyHour:         cfg.Time.Hour,
		keyMinute:       cfg.Time.Minute,
		keySelectedDays: days,
		keyMusicURI:     cfg.SoundRef,
	}
}

// armedFields renders an armed alarm, including its configuration snapshot.
func armedFields(armed *domain.ArmedAlarm) map[string]any {
	fields := configFields(&armed.Config)
	fields[keyAlarmID] = armed.ID
	fields[keyFireAt] = formatTime(armed.FireAt)
	fields[keyArmedAt] = formatTime(armed.ArmedAt)

	if armed.ArmedBy != nil {
		fields[keyArmedBy] = map[string]any{
			keyHostname: armed.ArmedBy.Hostname,
			keyUsername: armed.ArmedBy.Username,
		}
	}

	return fields
}

// recordToStruct converts the domain record into a protobuf Struct.
func recordToStruct(record *domain.Record) (*structpb.Struct, error) {
	fields := make(map[string]any)

	if record.Config != nil {
		fields = configFields(record.Config)
	}

	if record.Armed != nil {
		fields[keyArmed] = armedFields(record.Armed)
	}

	if !record.LastFiredAt.IsZero() {
		fields[keyLastFiredAt] = formatTime(record.LastFiredAt)
	}

	doc, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build record document: %w", err)
	}

	return doc, nil
}

// recordFromStruct converts a protobuf Struct back into the domain record.
func recordFromStruct(doc *structpb.Struct) (*domain.Record, error) {
	fields := doc.GetFields()
	record := new(domain.Record)

	if _, ok := fields[keyHour]; ok {
		cfg, err := configFromFields(fields)
		if err != nil {
			return nil, err
		}

		record.Config = cfg
	}

	if armedValue, ok := fields[keyArmed]; ok && armedValue.GetStructValue() != nil {
		armed, err := armedFromFields(armedValue.GetStructValue().GetFields())
		if err != nil {
			return nil, err
		}

		record.Armed = armed
	}

	if value, ok := fields[keyLastFiredAt]; ok {
		lastFiredAt, err := parseTime(value.GetStringValue())
		if err != nil {
			return nil, err
		}

		record.LastFiredAt = lastFiredAt
	}

	return record, nil
}

func configFromFields(fields map[string]*structpb.Value) (*domain.Config, error) {
	var ordinals []int

	for _, v := range fields[keySelectedDays].GetListValue().GetValues() {
		ordinals = append(ordinals, int(v.GetNumberValue()))
	}

	days, err := domain.WeekdaySetFromOrdinals(ordinals)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedRecord, err)
	}

	cfg := &domain.Config{
		Time: domain.TimeOfDay{
			Hour:   int(fields[keyHour].GetNumberValue()),
			Minute: int(fields[keyMinute].GetNumberValue()),
		},
		Weekdays: days,
		SoundRef: fields[keyMusicURI].GetStringValue(),
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedRecord, err)
	}

	return cfg, nil
}

func armedFromFields(fields map[string]*structpb.Value) (*domain.ArmedAlarm, error) {
	cfg, err := configFromFields(fields)
	if err != nil {
		return nil, err
	}

	fireAt, err := parseTime(fields[keyFireAt].GetStringValue())
	if err != nil {
		return nil, err
	}

	armedAt, err := parseTime(fields[keyArmedAt].GetStringValue())
	if err != nil {
		return nil, err
	}

	armed := &domain.ArmedAlarm{
		ID:      fields[keyAlarmID].GetStringValue(),
		FireAt:  fireAt,
		ArmedAt: armedAt,
		Config:  *cfg,
	}

	if by := fields[keyArmedBy].GetStructValue(); by != nil {
		armed.ArmedBy = &domain.Actor{
			Hostname: by.GetFields()[keyHostname].GetStringValue(),
			Username: by.GetFields()[keyUsername].GetStringValue(),
		}
	}

	if armed.ID == "" || armed.FireAt.IsZero() {
		return nil, fmt.Errorf("%w: armed alarm without id or instant", errMalformedRecord)
	}

	return armed, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse time %q: %w", errMalformedRecord, value, err)
	}

	return t, nil
}
