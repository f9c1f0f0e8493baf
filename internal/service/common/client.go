//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/alarm-clock/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Client wraps the gRPC AlarmClockService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm server.
	conn *grpc.ClientConn
	// api is the AlarmClockService client stub.
	api api.AlarmClockServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the alarm server.
// The server only listens on loopback, so the transport is not encrypted.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm server: %w", err)
	}

	return newClient(conn, opts...), nil
}

// newClient wraps an established connection.
func newClient(conn *grpc.ClientConn, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		api:         api.NewAlarmClockServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Preview asks the server when cfg would fire without arming it.
func (c *Client) Preview(ctx context.Context, cfg domain.Config) (domain.Result, error) {
	request, err := api.EncodeConfigRequest(cfg, nil)
	if err != nil {
		return domain.Result{}, fmt.Errorf("encode preview request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Preview(callCtx, request)
	if err != nil {
		return domain.Result{}, fmt.Errorf("preview alarm: %w", err)
	}

	decoded, err := api.DecodeArmResponse(response)
	if err != nil {
		return domain.Result{}, fmt.Errorf("preview alarm: %w", err)
	}

	return decoded.Result, nil
}

// Arm replaces the server configuration and schedules its next occurrence.
func (c *Client) Arm(ctx context.Context, cfg domain.Config, actor *domain.Actor) (api.ArmResponse, error) {
	if actor == nil {
		return api.ArmResponse{}, errActorRequired
	}

	request, err := api.EncodeConfigRequest(cfg, actor)
	if err != nil {
		return api.ArmResponse{}, fmt.Errorf("encode arm request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Arm(callCtx, request)
	if err != nil {
		return api.ArmResponse{}, fmt.Errorf("arm alarm: %w", err)
	}

	decoded, err := api.DecodeArmResponse(response)
	if err != nil {
		return api.ArmResponse{}, fmt.Errorf("arm alarm: %w", err)
	}

	return decoded, nil
}

// GetState retrieves the controller snapshot.
func (c *Client) GetState(ctx context.Context) (domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetState(callCtx, new(emptypb.Empty))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get alarm state: %w", err)
	}

	snapshot, err := api.DecodeSnapshot(response)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get alarm state: %w", err)
	}

	return snapshot, nil
}

// Dismiss ends the live alert on the server.
func (c *Client) Dismiss(ctx context.Context, actor *domain.Actor) (domain.Snapshot, error) {
	request, err := api.EncodeActorRequest(actor)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encode dismiss request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Dismiss(callCtx, request)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("dismiss alarm: %w", err)
	}

	snapshot, err := api.DecodeSnapshot(response)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("dismiss alarm: %w", err)
	}

	return snapshot, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
