package power

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestArgs checks the inhibitor arguments carry the timeout in whole seconds.
func TestArgs(t *testing.T) {
	t.Parallel()

	args := systemdInhibitArgs(90*time.Second + time.Millisecond)
	require.Equal(t, []string{"sleep", "91"}, args[len(args)-2:])
	require.Contains(t, args, "--what=idle:sleep")

	require.Equal(t, []string{"-d", "-i", "-u", "-t", "600"}, caffeinateArgs(10*time.Minute))
}

// TestCommandLocker_Release checks the grant ends on release and that release is idempotent.
func TestCommandLocker_Release(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep is not available")
	}

	locker := NewCommandLocker("sleep", func(timeout time.Duration) []string {
		return []string{seconds(timeout)}
	})

	lock, err := locker.Acquire(context.Background(), time.Hour)
	require.NoError(t, err)
	require.True(t, lock.Held())

	require.NoError(t, lock.Release())
	require.False(t, lock.Held())
	require.NoError(t, lock.Release())
}

// TestCommandLocker_Expires checks the grant ends by itself after its timeout.
func TestCommandLocker_Expires(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep is not available")
	}

	locker := NewCommandLocker("sleep", func(time.Duration) []string {
		return []string{"0"}
	})

	lock, err := locker.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !lock.Held() }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, lock.Release())
}

// TestCommandLocker_MissingBinary reports a start failure.
func TestCommandLocker_MissingBinary(t *testing.T) {
	t.Parallel()

	locker := NewCommandLocker("alarm-clock-no-such-inhibitor", caffeinateArgs)

	_, err := locker.Acquire(context.Background(), time.Minute)
	require.Error(t, err)

	_, err = locker.Acquire(context.Background(), 0)
	require.Error(t, err)
}

// TestNoopLocker checks the tracked grant.
func TestNoopLocker(t *testing.T) {
	t.Parallel()

	lock, err := new(NoopLocker).Acquire(context.Background(), time.Hour)
	require.NoError(t, err)
	require.True(t, lock.Held())
	require.NoError(t, lock.Release())
	require.False(t, lock.Held())
}

// TestDetect always returns a usable locker.
func TestDetect(t *testing.T) {
	t.Parallel()

	locker := Detect()
	require.NotEmpty(t, locker.Name())

	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		require.IsType(t, new(NoopLocker), locker)
	}
}
