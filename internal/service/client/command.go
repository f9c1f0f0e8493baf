package client

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
)

// Connection holds the settings shared by every client command.
type Connection struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Wait keeps retrying while the server is unreachable, zero tries once.
	Wait time.Duration
}

// defaultRetryInterval defines the delay between attempts while waiting for the server.
const defaultRetryInterval = 1 * time.Second

// dial loads the settings and connects to the alarm server.
func dial(ctx context.Context, conn *Connection) (*common.Client, *config.Config, error) {
	// Load settings from configuration file.
	cfg, err := config.Load(conn.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	// Use server address from options if provided, otherwise use config.
	if conn.ServerAddress != "" {
		cfg.ServerAddress = conn.ServerAddress
	}

	// Connect to alarm server with timeout from config.
	client, err := common.Dial(ctx, cfg.ServerAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, nil, err
	}

	return client, cfg, nil
}

// retry calls attempt until it succeeds, fails with an error other than
// Unavailable, or wait elapses.
func retry[T any](ctx context.Context, wait time.Duration, attempt func(context.Context) (T, error)) (T, error) {
	// Attempt immediately before starting retry loop.
	result, err := attempt(ctx)
	if err == nil || wait <= 0 || !isUnavailable(err) {
		return result, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	// Setup retry timer for subsequent attempts.
	ticker := time.NewTicker(defaultRetryInterval)
	defer ticker.Stop()

	// Retry loop until success or cancellation.
	for {
		logger.DebugKV(ctx, "Alarm server unavailable, retrying", "error", err)

		select {
		case <-waitCtx.Done():
			return result, err
		case <-ticker.C:
			result, err = attempt(waitCtx)
			if err == nil || !isUnavailable(err) {
				return result, err
			}
		}
	}
}

// isUnavailable reports whether err means the server could not be reached.
func isUnavailable(err error) bool {
	return status.Code(err) == codes.Unavailable
}
