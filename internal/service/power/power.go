package power

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// inhibitWho is the application name reported to the inhibitor.
const inhibitWho = "alarm-clock"

// Lock is a held wake grant.
type Lock interface {
	// Release ends the grant. Calling it more than once is safe.
	Release() error
	// Held reports whether the grant is still in effect.
	Held() bool
}

// Locker acquires time-bounded wake grants.
type Locker interface {
	// Acquire keeps the screen on and the host awake for at most timeout.
	Acquire(ctx context.Context, timeout time.Duration) (Lock, error)
	// Name identifies the capability in logs.
	Name() string
}

// Detect returns the wake capability of the running operating system.
// Linux uses systemd-inhibit, macOS uses caffeinate. Other systems get a
// locker that only tracks the grant.
func Detect() Locker {
	osName := strings.ToLower(runtime.GOOS)

	switch {
	case strings.Contains(osName, "linux"):
		if _, err := exec.LookPath("systemd-inhibit"); err == nil {
			return &CommandLocker{
				name:     "systemd-inhibit",
				args:     systemdInhibitArgs,
				screenOn: xsetScreenOn,
			}
		}
	case strings.Contains(osName, "darwin"):
		if _, err := exec.LookPath("caffeinate"); err == nil {
			return &CommandLocker{
				name: "caffeinate",
				args: caffeinateArgs,
			}
		}
	}

	return new(NoopLocker)
}

// systemdInhibitArgs blocks idle and sleep for the duration of a sleep child.
func systemdInhibitArgs(timeout time.Duration) []string {
	return []string{
		"--what=idle:sleep",
		"--who=" + inhibitWho,
		"--why=Alarm is ringing",
		"--mode=block",
		"sleep", seconds(timeout),
	}
}

// caffeinateArgs keeps the display and the system awake and declares user activity.
func caffeinateArgs(timeout time.Duration) []string {
	return []string{"-d", "-i", "-u", "-t", seconds(timeout)}
}

// xsetScreenOn turns the display on when an X session is available.
func xsetScreenOn(ctx context.Context) error {
	if os.Getenv("DISPLAY") == "" {
		return nil
	}

	if _, err := exec.LookPath("xset"); err != nil {
		return nil //nolint:nilerr // No X tools, nothing to turn on.
	}

	return exec.CommandContext(ctx, "xset", "dpms", "force", "on").Run()
}

func seconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

// CommandLocker holds a grant for as long as an inhibitor process runs.
type CommandLocker struct {
	// name is the inhibitor executable.
	name string
	// args builds the arguments for a grant of the given length.
	args func(timeout time.Duration) []string
	// screenOn optionally wakes the display after the grant starts.
	screenOn func(ctx context.Context) error
}

// NewCommandLocker returns a locker that runs name with the arguments built by args.
func NewCommandLocker(name string, args func(timeout time.Duration) []string) *CommandLocker {
	return &CommandLocker{
		name: name,
		args: args,
	}
}

// Name returns the inhibitor executable name.
func (l *CommandLocker) Name() string {
	return l.name
}

// Acquire starts the inhibitor process. The process is not tied to ctx; it
// lives until Release or until its own timeout.
func (l *CommandLocker) Acquire(ctx context.Context, timeout time.Duration) (Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("wake timeout must be positive, got %s", timeout)
	}

	//nolint:gosec,noctx // The executable is chosen by Detect; the grant outlives the request.
	cmd := exec.Command(l.name, l.args(timeout)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.name, err)
	}

	lock := &processLock{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()

		close(lock.done)
	}()

	if l.screenOn != nil {
		if err := l.screenOn(ctx); err != nil {
			logger.WarnKV(ctx, "Failed to turn the screen on", "error", err)
		}
	}

	return lock, nil
}

// processLock is a grant backed by a running process.
type processLock struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

// Release kills the inhibitor process and waits for it to exit.
func (p *processLock) Release() error {
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}

		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = fmt.Errorf("kill inhibitor: %w", err)

			return
		}

		<-p.done
	})

	return p.err
}

// Held reports whether the inhibitor process is still running.
func (p *processLock) Held() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// NoopLocker tracks grants on systems without a wake capability.
type NoopLocker struct{}

// Name returns "none".
func (*NoopLocker) Name() string {
	return "none"
}

// Acquire returns a grant that is held until released or timed out.
func (*NoopLocker) Acquire(_ context.Context, timeout time.Duration) (Lock, error) {
	return &noopLock{expires: time.Now().Add(timeout)}, nil
}

type noopLock struct {
	expires  time.Time
	mu       sync.Mutex
	released bool
}

func (n *noopLock) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.released = true

	return nil
}

func (n *noopLock) Held() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return !n.released && time.Now().Before(n.expires)
}
