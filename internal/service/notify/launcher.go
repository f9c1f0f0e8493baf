package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Launcher presents alerts by starting the full-screen alert window process.
type Launcher struct {
	// path is the alert window executable.
	path string
	// serverAddress is passed to the window so it can dismiss the alarm.
	serverAddress string
}

// NewLauncher creates a presenter for the executable at path. A bare name is
// looked up next to the running binary first and then in PATH.
func NewLauncher(path, serverAddress string) *Launcher {
	return &Launcher{
		path:          resolveExecutable(path),
		serverAddress: serverAddress,
	}
}

func resolveExecutable(path string) string {
	if filepath.Base(path) != path {
		return path
	}

	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), path)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling
		}
	}

	return path
}

// Ready checks that the alert window executable can be started.
func (l *Launcher) Ready() error {
	if _, err := exec.LookPath(l.path); err != nil {
		return fmt.Errorf("alert window %s: %w", l.path, err)
	}

	return nil
}

// Present starts the alert window. The window exiting on its own counts as a
// dismissal; a crash does not.
func (l *Launcher) Present(ctx context.Context, alert Alert, onDismiss func()) (Presentation, error) {
	//nolint:gosec,noctx // The executable comes from the settings; the window outlives the request.
	cmd := exec.Command(l.path,
		"--server", l.serverAddress,
		"--title", alert.Title,
		"--message", alert.Body,
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start alert window: %w: %w", domain.ErrPresentationSuppressed, err)
	}

	p := &processPresentation{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go p.wait(context.WithoutCancel(ctx), onDismiss)

	logger.DebugKV(ctx, "Alert window started", "session_id", alert.SessionID, "pid", cmd.Process.Pid)

	return p, nil
}

// processPresentation is a running alert window.
type processPresentation struct {
	cmd    *exec.Cmd
	done   chan struct{}
	mu     sync.Mutex
	closed bool
	once   sync.Once
	err    error
}

func (p *processPresentation) wait(ctx context.Context, onDismiss func()) {
	err := p.cmd.Wait()

	close(p.done)

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	switch {
	case closed:
	case err != nil:
		logger.WarnKV(ctx, "Alert window exited", "error", err)
	case onDismiss != nil:
		onDismiss()
	}
}

// Close terminates the window if it is still running.
func (p *processPresentation) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		select {
		case <-p.done:
			return
		default:
		}

		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = fmt.Errorf("kill alert window: %w", err)

			return
		}

		<-p.done
	})

	return p.err
}
