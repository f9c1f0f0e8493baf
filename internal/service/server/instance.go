package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another daemon owns the alarm slot.
var ErrAlreadyRunning = errors.New("another alarm server is already running")

// processLister returns the running processes.
type processLister func() ([]ps.Process, error)

// listProcesses lists the processes of the host.
func listProcesses() ([]ps.Process, error) {
	return ps.Processes()
}

// ensureSingleInstance fails when another process runs the same executable.
func ensureSingleInstance(list processLister) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	return findInstance(list, executableName(self), os.Getpid())
}

// findInstance looks for a process other than pid named name.
func findInstance(list processLister, name string, pid int) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == pid {
			continue
		}

		if !strings.EqualFold(process.Executable(), name) {
			continue
		}

		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, process.Pid())
	}

	return nil
}

// executableName returns the process name of path, with ".exe" on Windows.
func executableName(path string) string {
	name := filepath.Base(path)
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}

	return name
}
