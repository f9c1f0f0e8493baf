//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// sudoUserEnv names the invoking user when a command runs under sudo.
const sudoUserEnv = "SUDO_USER"

// DetectActor identifies the person arming or dismissing the alarm.
// Under sudo the invoking user is recorded rather than root.
func DetectActor() (*domain.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	username, err := currentUsername(os.Getenv(sudoUserEnv), user.Current)
	if err != nil {
		return nil, err
	}

	return &domain.Actor{
		Hostname: hostname,
		Username: username,
	}, nil
}

// currentUsername prefers the sudo user and falls back to the process owner.
func currentUsername(sudoUser string, lookup func() (*user.User, error)) (string, error) {
	if name := strings.TrimSpace(sudoUser); name != "" {
		return name, nil
	}

	currentUser, err := lookup()
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}

	// Windows reports DOMAIN\name.
	if _, name, found := strings.Cut(currentUser.Username, `\`); found {
		return name, nil
	}

	return currentUser.Username, nil
}
