package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarmclock.v1.AlarmClockService"

// Full method names.
const (
	PreviewFullMethodName  = "/" + ServiceName + "/Preview"
	ArmFullMethodName      = "/" + ServiceName + "/Arm"
	GetStateFullMethodName = "/" + ServiceName + "/GetState"
	DismissFullMethodName  = "/" + ServiceName + "/Dismiss"
)

// AlarmClockServiceServer is the server API of the alarm clock service.
type AlarmClockServiceServer interface {
	// Preview computes the next occurrence of a configuration.
	Preview(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	// Arm schedules the next occurrence of a configuration.
	Arm(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	// GetState returns the controller snapshot.
	GetState(ctx context.Context, request *emptypb.Empty) (*structpb.Struct, error)
	// Dismiss ends the live alert.
	Dismiss(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAlarmClockServiceServer registers srv on the gRPC server.
func RegisterAlarmClockServiceServer(s grpc.ServiceRegistrar, srv AlarmClockServiceServer) {
	s.RegisterService(&AlarmClockServiceDesc, srv)
}

// AlarmClockServiceDesc describes the service for grpc.ServiceRegistrar.
//
//nolint:gochecknoglobals // Service descriptors are package level by convention.
var AlarmClockServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmClockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Preview", Handler: structHandler(PreviewFullMethodName, AlarmClockServiceServer.Preview)},
		{MethodName: "Arm", Handler: structHandler(ArmFullMethodName, AlarmClockServiceServer.Arm)},
		{MethodName: "GetState", Handler: getStateHandler},
		{MethodName: "Dismiss", Handler: structHandler(DismissFullMethodName, AlarmClockServiceServer.Dismiss)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarmclock/v1/alarm_clock.proto",
}

// structMethod is a unary method taking and returning a Struct.
type structMethod func(AlarmClockServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// structHandler adapts a Struct method to a grpc.MethodHandler.
func structHandler(fullMethod string, method structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(AlarmClockServiceServer)

		if interceptor == nil {
			return method(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			request, _ := req.(*structpb.Struct)

			return method(server, ctx, request)
		}

		return interceptor(ctx, in, info, handler)
	}
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(AlarmClockServiceServer)

	if interceptor == nil {
		return server.GetState(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStateFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		request, _ := req.(*emptypb.Empty)

		return server.GetState(ctx, request)
	}

	return interceptor(ctx, in, info, handler)
}

// AlarmClockServiceClient is the client API of the alarm clock service.
type AlarmClockServiceClient interface {
	Preview(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Arm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Dismiss(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type alarmClockServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmClockServiceClient creates a client stub on the connection.
func NewAlarmClockServiceClient(cc grpc.ClientConnInterface) AlarmClockServiceClient {
	return &alarmClockServiceClient{cc: cc}
}

func (c *alarmClockServiceClient) Preview(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, PreviewFullMethodName, in, opts...)
}

func (c *alarmClockServiceClient) Arm(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, ArmFullMethodName, in, opts...)
}

func (c *alarmClockServiceClient) GetState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStateFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alarmClockServiceClient) Dismiss(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, DismissFullMethodName, in, opts...)
}

func (c *alarmClockServiceClient) invoke(
	ctx context.Context,
	method string,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
