package alarm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// fakeService implements the alarm Service interface for unit testing the transport.
type fakeService struct {
	// err is returned by Preview and Arm when set.
	err error
	// snapshot is what GetState and Dismiss report.
	snapshot domain.Snapshot
	// armedBy is the actor of the last Arm call.
	armedBy *domain.Actor
	// dismissedBy is the actor of the last Dismiss call.
	dismissedBy *domain.Actor
}

var fixedFireAt = time.Date(2025, time.January, 10, 7, 30, 0, 0, time.UTC)

func (f *fakeService) Preview(domain.Config) (domain.Result, error) {
	if f.err != nil {
		return domain.Result{}, f.err
	}

	return domain.Result{FireAt: fixedFireAt, Message: "Alarm set for tomorrow."}, nil
}

func (f *fakeService) Arm(_ context.Context, cfg domain.Config, actor *domain.Actor) (*domain.ArmedAlarm, domain.Result, error) {
	if f.err != nil {
		return nil, domain.Result{}, f.err
	}

	f.armedBy = actor
	armed := &domain.ArmedAlarm{ID: "alarm-1", FireAt: fixedFireAt, ArmedBy: actor, Config: cfg}
	f.snapshot = domain.Snapshot{State: domain.StateArmed, Config: &cfg, Armed: armed}

	return armed, domain.Result{FireAt: fixedFireAt, Message: "Alarm set for tomorrow."}, nil
}

func (f *fakeService) Snapshot(context.Context) domain.Snapshot { return f.snapshot }

func (f *fakeService) Dismiss(_ context.Context, actor *domain.Actor) domain.Snapshot {
	f.dismissedBy = actor
	f.snapshot.Session = nil

	return f.snapshot
}

func configRequest(t *testing.T, cfg domain.Config, actor *domain.Actor) *structpb.Struct {
	t.Helper()

	request, err := EncodeConfigRequest(cfg, actor)
	require.NoError(t, err)

	return request
}

// TestServer_Validation ensures malformed requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	_, err := s.Arm(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.Preview(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	// Arm requires an actor.
	request := configRequest(t, domain.Config{Time: domain.TimeOfDay{Hour: 7}}, nil)

	_, err = s.Arm(context.Background(), request)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	// Missing minute.
	request, err = structpb.NewStruct(map[string]any{"hour": 7})
	require.NoError(t, err)

	_, err = s.Preview(context.Background(), request)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	// Weekday out of range.
	request, err = structpb.NewStruct(map[string]any{"hour": 7, "minute": 0, "selected_days": []any{9}})
	require.NoError(t, err)

	_, err = s.Preview(context.Background(), request)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_ErrorMapping checks how domain failures surface as status codes.
func TestServer_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{
			name: "invalid configuration",
			err:  fmt.Errorf("hour 24: %w", domain.ErrInvalidConfig),
			code: codes.InvalidArgument,
		},
		{
			name: "permission denied",
			err:  fmt.Errorf("exact alarms: %w", domain.ErrPermissionDenied),
			code: codes.PermissionDenied,
		},
		{
			name:    "unschedulable",
			err:     domain.ErrUnschedulable,
			code:    codes.FailedPrecondition,
			message: domain.UnschedulableMessage,
		},
		{
			name:    "storage failure",
			err:     errInjected,
			code:    codes.Internal,
			message: "unable to process request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewServer(&fakeService{err: tt.err})
			actor := &domain.Actor{Hostname: "host", Username: "user"}

			_, err := s.Arm(context.Background(), configRequest(t, domain.Config{}, actor))
			require.Equal(t, tt.code, status.Code(err))

			if tt.message != "" {
				require.Equal(t, tt.message, status.Convert(err).Message())
			}
		})
	}
}

// TestServer_Roundtrip exercises Arm, GetState and Dismiss on the server implementation.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	service := new(fakeService)
	s := NewServer(service)

	actor := &domain.Actor{Hostname: "test-hostname", Username: "test-user"}
	cfg := domain.Config{
		Time:     domain.TimeOfDay{Hour: 7, Minute: 30},
		Weekdays: domain.NewWeekdaySet(time.Monday, time.Friday),
		SoundRef: "file:///tmp/ring.wav",
	}

	// Arm and verify the response document.
	response, err := s.Arm(context.Background(), configRequest(t, cfg, actor))
	require.NoError(t, err)

	decoded, err := DecodeArmResponse(response)
	require.NoError(t, err)
	require.Equal(t, "alarm-1", decoded.AlarmID)
	require.True(t, fixedFireAt.Equal(decoded.Result.FireAt))
	require.Equal(t, "Alarm set for tomorrow.", decoded.Result.Message)
	require.Equal(t, actor, service.armedBy)

	// The snapshot reflects the armed configuration.
	response, err = s.GetState(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)

	snapshot, err := DecodeSnapshot(response)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, snapshot.State)
	require.NotNil(t, snapshot.Armed)
	require.Equal(t, "alarm-1", snapshot.Armed.ID)
	require.Equal(t, cfg, snapshot.Armed.Config)
	require.Equal(t, actor, snapshot.Armed.ArmedBy)
	require.Equal(t, cfg, *snapshot.Config)
	require.Equal(t, domain.FormatNext(fixedFireAt), response.GetFields()["next_alarm"].GetStringValue())

	// Dismiss forwards the actor.
	dismissRequest, err := EncodeActorRequest(actor)
	require.NoError(t, err)

	_, err = s.Dismiss(context.Background(), dismissRequest)
	require.NoError(t, err)
	require.Equal(t, actor, service.dismissedBy)
}

// TestServer_PreviewHasNoID ensures a preview never reports an alarm id.
func TestServer_PreviewHasNoID(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	response, err := s.Preview(context.Background(), configRequest(t, domain.Config{}, nil))
	require.NoError(t, err)

	decoded, err := DecodeArmResponse(response)
	require.NoError(t, err)
	require.Empty(t, decoded.AlarmID)
	require.True(t, fixedFireAt.Equal(decoded.Result.FireAt))
}
