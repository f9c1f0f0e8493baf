package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// autostartName is the login item identifier.
const autostartName = "alarm-clock-server"

// loginItem is the part of autostart.App used here.
type loginItem interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// configureAutostart registers the daemon to start at login when enable is
// set and removes the registration otherwise.
func configureAutostart(ctx context.Context, enable bool, configPath string) error {
	app, err := newLoginItem(configPath)
	if err != nil {
		return err
	}

	return syncLoginItem(ctx, app, enable)
}

func newLoginItem(configPath string) (*autostart.App, error) {
	// Get the executable path.
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}

	// Resolve symlinks if any.
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	if configPath == "" {
		configPath = config.DefaultConfigFilename
	}

	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	return &autostart.App{
		Name:        autostartName,
		DisplayName: config.DefaultAppName,
		Exec:        []string{execPath, "--config", configPath},
	}, nil
}

func syncLoginItem(ctx context.Context, app loginItem, enable bool) error {
	switch {
	case enable && !app.IsEnabled():
		if err := app.Enable(); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}

		logger.Info(ctx, "Autostart enabled")
	case !enable && app.IsEnabled():
		if err := app.Disable(); err != nil {
			return fmt.Errorf("disable autostart: %w", err)
		}

		logger.Info(ctx, "Autostart disabled")
	}

	return nil
}
