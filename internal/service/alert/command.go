package alert

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
)

// appID identifies the window application to the desktop.
const appID = "io.github.oshokin.alarm-clock"

// Defaults shown when the daemon passes no text.
const (
	defaultTitle   = "Alarm"
	defaultMessage = "Time to wake up!"
)

// Options configures the alert window.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress is the daemon to dismiss the alarm on.
	ServerAddress string
	// Title is the headline.
	Title string
	// Message is the detail line.
	Message string
}

// Dismisser ends the alarm on the daemon.
type Dismisser interface {
	Dismiss(ctx context.Context, actor *domain.Actor) (domain.Snapshot, error)
}

// Run shows the window until it is dismissed. A canceled context closes the
// window and returns the context error, so the exit does not count as a dismissal.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-alert")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	if opts.ServerAddress != "" {
		cfg.ServerAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, cfg.ServerAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	application := app.NewWithID(appID)
	window := NewWindow(application, textOr(opts.Title, defaultTitle), textOr(opts.Message, defaultMessage), func() {
		go func() {
			dismissRemote(ctx, client)
			fyne.Do(application.Quit)
		}()
	})

	window.Show()

	go func() {
		<-ctx.Done()
		fyne.Do(application.Quit)
	}()

	logger.InfoKV(ctx, "Alert window shown", "server_address", cfg.ServerAddress)

	application.Run()

	return ctx.Err()
}

// dismissRemote asks the daemon to end the alarm. Failures are logged only;
// the daemon also reads the clean exit as a dismissal.
func dismissRemote(ctx context.Context, dismisser Dismisser) {
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	if _, err = dismisser.Dismiss(ctx, actor); err != nil {
		logger.WarnKV(ctx, "Dismiss request failed", "error", err)

		return
	}

	logger.Info(ctx, "Alarm dismissed from the alert window")
}

func textOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
