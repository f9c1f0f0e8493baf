package alarm

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Document field names.
const (
	fieldActor        = "actor"
	fieldHostname     = "hostname"
	fieldUsername     = "username"
	fieldHour         = "hour"
	fieldMinute       = "minute"
	fieldSelectedDays = "selected_days"
	fieldMusicURI     = "music_uri"
	fieldAlarmID      = "alarm_id"
	fieldFireAt       = "fire_at"
	fieldArmedAt      = "armed_at"
	fieldArmedBy      = "armed_by"
	fieldSameDay      = "same_day"
	fieldMessage      = "message"
	fieldState        = "state"
	fieldConfig       = "config"
	fieldArmed        = "armed"
	fieldSession      = "session"
	fieldSessionID    = "session_id"
	fieldStartedAt    = "started_at"
	fieldSoundPlaying = "sound_playing"
	fieldWakeHeld     = "wake_held"
	fieldPresented    = "presented"
	fieldLastFiredAt  = "last_fired_at"
	fieldNextAlarm    = "next_alarm"
)

// errMalformedDocument is returned when a response cannot be decoded.
var errMalformedDocument = errors.New("malformed document")

// ArmResponse is the decoded answer of Preview and Arm.
type ArmResponse struct {
	// AlarmID is empty for a preview.
	AlarmID string
	// Result is the computed occurrence.
	Result domain.Result
}

// EncodeConfigRequest builds the Preview and Arm request document.
func EncodeConfigRequest(cfg domain.Config, actor *domain.Actor) (*structpb.Struct, error) {
	fields := configFields(&cfg)
	if actor != nil {
		fields[fieldActor] = actorFields(actor)
	}

	return structpb.NewStruct(fields)
}

// DecodeConfigRequest reads the configuration and the actor of a request.
// Range checks are left to the controller.
func DecodeConfigRequest(request *structpb.Struct) (domain.Config, *domain.Actor, error) {
	fields := request.GetFields()

	hour, ok := fields[fieldHour]
	if !ok {
		return domain.Config{}, nil, fmt.Errorf("hour is required: %w", domain.ErrInvalidConfig)
	}

	minute, ok := fields[fieldMinute]
	if !ok {
		return domain.Config{}, nil, fmt.Errorf("minute is required: %w", domain.ErrInvalidConfig)
	}

	var ordinals []int

	for _, day := range fields[fieldSelectedDays].GetListValue().GetValues() {
		ordinals = append(ordinals, int(day.GetNumberValue()))
	}

	days, err := domain.WeekdaySetFromOrdinals(ordinals)
	if err != nil {
		return domain.Config{}, nil, err
	}

	cfg := domain.Config{
		Time: domain.TimeOfDay{
			Hour:   int(hour.GetNumberValue()),
			Minute: int(minute.GetNumberValue()),
		},
		Weekdays: days,
		SoundRef: fields[fieldMusicURI].GetStringValue(),
	}

	return cfg, DecodeActor(request), nil
}

// EncodeActorRequest builds the Dismiss request document.
func EncodeActorRequest(actor *domain.Actor) (*structpb.Struct, error) {
	fields := make(map[string]any)
	if actor != nil {
		fields[fieldActor] = actorFields(actor)
	}

	return structpb.NewStruct(fields)
}

// DecodeActor reads the actor of a request, nil when absent.
func DecodeActor(request *structpb.Struct) *domain.Actor {
	actor := request.GetFields()[fieldActor].GetStructValue()
	if actor == nil {
		return nil
	}

	return &domain.Actor{
		Hostname: actor.GetFields()[fieldHostname].GetStringValue(),
		Username: actor.GetFields()[fieldUsername].GetStringValue(),
	}
}

// EncodeArmResponse builds the Preview and Arm response document.
func EncodeArmResponse(alarmID string, result domain.Result) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldFireAt:  formatTime(result.FireAt),
		fieldSameDay: result.SameDay,
		fieldMessage: result.Message,
	}

	if alarmID != "" {
		fields[fieldAlarmID] = alarmID
	}

	return structpb.NewStruct(fields)
}

// DecodeArmResponse reads a Preview or Arm response.
func DecodeArmResponse(response *structpb.Struct) (ArmResponse, error) {
	fields := response.GetFields()

	fireAt, err := parseTime(fields[fieldFireAt].GetStringValue())
	if err != nil {
		return ArmResponse{}, err
	}

	return ArmResponse{
		AlarmID: fields[fieldAlarmID].GetStringValue(),
		Result: domain.Result{
			FireAt:  fireAt,
			SameDay: fields[fieldSameDay].GetBoolValue(),
			Message: fields[fieldMessage].GetStringValue(),
		},
	}, nil
}

// EncodeSnapshot builds the GetState and Dismiss response document.
func EncodeSnapshot(snapshot domain.Snapshot) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldState:       snapshot.State.String(),
		fieldLastFiredAt: formatTime(snapshot.LastFiredAt),
	}

	if snapshot.Config != nil {
		fields[fieldConfig] = configFields(snapshot.Config)
	}

	if armed := snapshot.Armed; armed != nil {
		armedDoc := configFields(&armed.Config)
		armedDoc[fieldAlarmID] = armed.ID
		armedDoc[fieldFireAt] = formatTime(armed.FireAt)
		armedDoc[fieldArmedAt] = formatTime(armed.ArmedAt)

		if armed.ArmedBy != nil {
			armedDoc[fieldArmedBy] = actorFields(armed.ArmedBy)
		}

		fields[fieldArmed] = armedDoc
		fields[fieldNextAlarm] = domain.FormatNext(armed.FireAt)
	} else {
		fields[fieldNextAlarm] = domain.FormatNext(time.Time{})
	}

	if session := snapshot.Session; session != nil {
		fields[fieldSession] = map[string]any{
			fieldSessionID:    session.ID,
			fieldStartedAt:    formatTime(session.StartedAt),
			fieldFireAt:       formatTime(session.FireAt),
			fieldSoundPlaying: session.SoundPlaying,
			fieldWakeHeld:     session.WakeHeld,
			fieldPresented:    session.Presented,
		}
	}

	return structpb.NewStruct(fields)
}

// DecodeSnapshot reads a GetState or Dismiss response.
//
//nolint:cyclop // One branch per optional section.
func DecodeSnapshot(response *structpb.Struct) (domain.Snapshot, error) {
	fields := response.GetFields()

	state, ok := domain.ParseState(fields[fieldState].GetStringValue())
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: state %q", errMalformedDocument, fields[fieldState].GetStringValue())
	}

	lastFiredAt, err := parseTime(fields[fieldLastFiredAt].GetStringValue())
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		State:       state,
		LastFiredAt: lastFiredAt,
	}

	if doc := fields[fieldConfig].GetStructValue(); doc != nil {
		cfg, _, err := DecodeConfigRequest(doc)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %w", errMalformedDocument, err)
		}

		snapshot.Config = &cfg
	}

	if doc := fields[fieldArmed].GetStructValue(); doc != nil {
		cfg, _, err := DecodeConfigRequest(doc)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: %w", errMalformedDocument, err)
		}

		armedFields := doc.GetFields()

		fireAt, err := parseTime(armedFields[fieldFireAt].GetStringValue())
		if err != nil {
			return domain.Snapshot{}, err
		}

		armedAt, err := parseTime(armedFields[fieldArmedAt].GetStringValue())
		if err != nil {
			return domain.Snapshot{}, err
		}

		snapshot.Armed = &domain.ArmedAlarm{
			ID:      armedFields[fieldAlarmID].GetStringValue(),
			FireAt:  fireAt,
			ArmedAt: armedAt,
			Config:  cfg,
		}

		if by := armedFields[fieldArmedBy].GetStructValue(); by != nil {
			snapshot.Armed.ArmedBy = &domain.Actor{
				Hostname: by.GetFields()[fieldHostname].GetStringValue(),
				Username: by.GetFields()[fieldUsername].GetStringValue(),
			}
		}
	}

	if doc := fields[fieldSession].GetStructValue(); doc != nil {
		sessionFields := doc.GetFields()

		startedAt, err := parseTime(sessionFields[fieldStartedAt].GetStringValue())
		if err != nil {
			return domain.Snapshot{}, err
		}

		fireAt, err := parseTime(sessionFields[fieldFireAt].GetStringValue())
		if err != nil {
			return domain.Snapshot{}, err
		}

		snapshot.Session = &domain.SessionInfo{
			ID:           sessionFields[fieldSessionID].GetStringValue(),
			StartedAt:    startedAt,
			FireAt:       fireAt,
			SoundPlaying: sessionFields[fieldSoundPlaying].GetBoolValue(),
			WakeHeld:     sessionFields[fieldWakeHeld].GetBoolValue(),
			Presented:    sessionFields[fieldPresented].GetBoolValue(),
		}
	}

	return snapshot, nil
}

func configFields(cfg *domain.Config) map[string]any {
	ordinals := cfg.Weekdays.Ordinals()
	days := make([]any, 0, len(ordinals))

	for _, o := range ordinals {
		days = append(days, o)
	}

	return map[string]any{
		fieldHour:         cfg.Time.Hour,
		fieldMinute:       cfg.Time.Minute,
		fieldSelectedDays: days,
		fieldMusicURI:     cfg.SoundRef,
	}
}

func actorFields(actor *domain.Actor) map[string]any {
	return map[string]any{
		fieldHostname: actor.Hostname,
		fieldUsername: actor.Username,
	}
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
		return time.Time{}, fmt.Errorf("%w: time %q: %w", errMalformedDocument, value, err)
	}

	return t, nil
}
