package notify

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// writeScript creates an executable shell script in a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	path := filepath.Join(t.TempDir(), "alarm-alert")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700))

	return path
}

// TestLauncher_WindowExitDismisses treats a clean window exit as a dismissal.
func TestLauncher_WindowExitDismisses(t *testing.T) {
	t.Parallel()

	launcher := NewLauncher(writeScript(t, "exit 0"), "127.0.0.1:1")
	require.NoError(t, launcher.Ready())

	dismissed := make(chan struct{})

	p, err := launcher.Present(context.Background(), NewAlert("s1", time.Now()), func() { close(dismissed) })
	require.NoError(t, err)

	select {
	case <-dismissed:
	case <-time.After(5 * time.Second):
		t.Fatal("window exit did not dismiss")
	}

	require.NoError(t, p.Close())
}

// TestLauncher_CloseKillsWindow checks Close ends the window without a dismissal.
func TestLauncher_CloseKillsWindow(t *testing.T) {
	t.Parallel()

	launcher := NewLauncher(writeScript(t, "exec sleep 3600"), "127.0.0.1:1")

	dismissed := make(chan struct{}, 1)

	p, err := launcher.Present(context.Background(), NewAlert("s1", time.Now()), func() { dismissed <- struct{}{} })
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	require.Empty(t, dismissed)
}

// TestLauncher_Missing reports a suppressed presentation.
func TestLauncher_Missing(t *testing.T) {
	t.Parallel()

	launcher := NewLauncher(filepath.Join(t.TempDir(), "absent"), "127.0.0.1:1")
	require.Error(t, launcher.Ready())

	_, err := launcher.Present(context.Background(), Alert{}, nil)
	require.ErrorIs(t, err, domain.ErrPresentationSuppressed)
}
