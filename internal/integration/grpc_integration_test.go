package integration

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/service/client"
	"github.com/oshokin/alarm-clock/internal/service/common"
	"github.com/oshokin/alarm-clock/internal/service/server"
)

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeSettings creates a configuration file for a test daemon. Desktop
// notifications are off and the alert window is a script that exits at once.
func writeSettings(t *testing.T, addr, storage, statePath string) string {
	t.Helper()

	dir := t.TempDir()
	launcher := filepath.Join(dir, "alarm-alert")
	require.NoError(t, os.WriteFile(launcher, []byte("#!/bin/sh\nexit 0\n"), 0o700)) //nolint:gosec // Test script.

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ServerAddress: addr,
			Storage:       storage,
			StateFile:     statePath,
			Timeout:       5 * time.Second,
			Alert: config.Alert{
				Launcher:             launcher,
				DisableNotifications: true,
			},
		}),
	)

	return cfgPath
}

// startGRPC runs the daemon until the returned stop function is called.
// stop waits for the daemon to exit.
func startGRPC(t *testing.T, cfgPath string) (stop func()) {
	t.Helper()

	// Create cancellable context for server lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Start server in background goroutine.
	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	settings, err := config.Load(cfgPath)
	require.NoError(t, err)

	c, err := common.Dial(ctx, settings.ServerAddress, common.WithCallTimeout(time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	// Wait for server to start answering.
	require.Eventually(t, func() bool {
		_, err := c.GetState(ctx)

		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// TestGRPC_Roundtrip starts the real server and exercises preview, arm,
// state and dismiss with on-disk persistence.
func TestGRPC_Roundtrip(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	statePath := filepath.Join(t.TempDir(), "state.json")

	stop := startGRPC(t, writeSettings(t, addr, config.StorageFile, statePath))
	defer stop()

	ctx := context.Background()
	c := dial(t, addr)

	// Nothing is armed at first.
	snapshot, err := c.GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StateIdle, snapshot.State)
	require.Nil(t, snapshot.Armed)

	cfg := domain.Config{
		Time:     domain.TimeOfDay{Hour: 6, Minute: 30},
		Weekdays: domain.WorkDays,
	}

	// Preview does not arm.
	preview, err := c.Preview(ctx, cfg)
	require.NoError(t, err)
	require.True(t, preview.FireAt.After(time.Now()))
	require.Contains(t, preview.Message, "Alarm set for ")

	snapshot, err = c.GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StateIdle, snapshot.State)

	// Arm records the actor and persists the record.
	actor := &domain.Actor{Hostname: "test-hostname", Username: "test-user"}

	armed, err := c.Arm(ctx, cfg, actor)
	require.NoError(t, err)
	require.NotEmpty(t, armed.AlarmID)
	require.True(t, preview.FireAt.Equal(armed.Result.FireAt))

	snapshot, err = c.GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, snapshot.State)
	require.Equal(t, armed.AlarmID, snapshot.Armed.ID)
	require.Equal(t, actor, snapshot.Armed.ArmedBy)
	require.Equal(t, cfg, *snapshot.Config)

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	// Dismiss with nothing ringing changes nothing.
	snapshot, err = c.Dismiss(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, snapshot.State)
	require.Nil(t, snapshot.Session)
}

// TestGRPC_Errors checks how rejected requests surface to clients.
func TestGRPC_Errors(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)

	stop := startGRPC(t, writeSettings(t, addr, config.StorageFile, filepath.Join(t.TempDir(), "state.json")))
	defer stop()

	ctx := context.Background()
	c := dial(t, addr)
	actor := &domain.Actor{Hostname: "test-hostname", Username: "test-user"}

	// Out of range hour.
	_, err := c.Arm(ctx, domain.Config{Time: domain.TimeOfDay{Hour: 24}}, actor)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	// Unreadable sound.
	_, err = c.Arm(ctx, domain.Config{SoundRef: filepath.Join(t.TempDir(), "missing.wav")}, actor)
	require.Equal(t, codes.PermissionDenied, status.Code(err))

	// The slot is unchanged.
	snapshot, err := c.GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StateIdle, snapshot.State)
}

// TestGRPC_ResumeAfterRestart arms through the command line helpers, restarts
// the daemon on the same SQLite database and finds the alarm still armed.
func TestGRPC_ResumeAfterRestart(t *testing.T) {
	t.Parallel()

	addr := reservePort(t)
	cfgPath := writeSettings(t, addr, config.StorageSQLite, filepath.Join(t.TempDir(), "alarm.db"))
	ctx := context.Background()

	stop := startGRPC(t, cfgPath)

	var out bytes.Buffer

	days := "sat,sun"
	err := client.RunSet(ctx, &client.SetOptions{
		Connection: client.Connection{ConfigPath: cfgPath},
		Time:       "09:15",
		Days:       &days,
	}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "Next alarm: ")

	before, err := dial(t, addr).GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, before.Armed)

	stop()

	// Restart on the same database.
	stop = startGRPC(t, cfgPath)
	defer stop()

	after, err := dial(t, addr).GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StateArmed, after.State)
	require.Equal(t, before.Armed.ID, after.Armed.ID)
	require.True(t, before.Armed.FireAt.Equal(after.Armed.FireAt))
	require.Equal(t, domain.Weekend, after.Armed.Config.Weekdays)

	// A time-only change keeps the saved days.
	out.Reset()

	err = client.RunSet(ctx, &client.SetOptions{
		Connection: client.Connection{ConfigPath: cfgPath},
		Time:       "10:00",
	}, &out)
	require.NoError(t, err)

	out.Reset()

	err = client.RunStatus(ctx, &client.StatusOptions{
		Connection: client.Connection{ConfigPath: cfgPath},
		Upcoming:   2,
	}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "State: armed")
	require.Contains(t, out.String(), "days: sun,sat")

	out.Reset()

	err = client.RunDismiss(ctx, &client.DismissOptions{
		Connection: client.Connection{ConfigPath: cfgPath},
	}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "State: armed")
}
