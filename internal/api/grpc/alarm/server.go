package alarm

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Preview(cfg domain.Config) (domain.Result, error)
	Arm(ctx context.Context, cfg domain.Config, actor *domain.Actor) (*domain.ArmedAlarm, domain.Result, error)
	Snapshot(ctx context.Context) domain.Snapshot
	Dismiss(ctx context.Context, actor *domain.Actor) domain.Snapshot
}

// Server implements the AlarmClockService gRPC API.
type Server struct {
	// service provides the business logic for alarm operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Preview computes the next occurrence without arming it.
func (s *Server) Preview(_ context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	cfg, _, err := DecodeConfigRequest(request)
	if err != nil {
		return nil, toStatus(err)
	}

	result, err := s.service.Preview(cfg)
	if err != nil {
		return nil, toStatus(err)
	}

	return encoded(EncodeArmResponse("", result))
}

// Arm replaces the configuration and schedules its next occurrence.
func (s *Server) Arm(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	cfg, actor, err := DecodeConfigRequest(request)
	if err != nil {
		return nil, toStatus(err)
	}

	if actor == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	armed, result, err := s.service.Arm(ctx, cfg, actor)
	if err != nil {
		return nil, toStatus(err)
	}

	return encoded(EncodeArmResponse(armed.ID, result))
}

// GetState returns the controller snapshot.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encoded(EncodeSnapshot(s.service.Snapshot(ctx)))
}

// Dismiss ends the live alert. It succeeds when nothing is ringing.
func (s *Server) Dismiss(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	return encoded(EncodeSnapshot(s.service.Dismiss(ctx, DecodeActor(request))))
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrUnschedulable):
		return status.Error(codes.FailedPrecondition, domain.UnschedulableMessage)
	default:
		return status.Error(codes.Internal, "unable to process request")
	}
}

func encoded(response *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return response, nil
}
