package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-clock/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/audio"
	"github.com/oshokin/alarm-clock/internal/service/controller"
	"github.com/oshokin/alarm-clock/internal/service/power"
	"github.com/oshokin/alarm-clock/internal/service/scheduler"
)

// Options controls the alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides the path of the persisted alarm record.
	StateFile string
	// Storage overrides the record backend ("file" or "sqlite").
	Storage string
	// LogLevel overrides the configured log level.
	LogLevel string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the alarm daemon and blocks until context is canceled or the gRPC server stops.
// Loads configuration first, then wires the controller and its collaborators.
//
//nolint:funlen // Startup wiring reads best as one sequence.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Command line options override the file.
	if err = applyOverrides(settings, opts); err != nil {
		return err
	}

	// Apply the log level and the optional rotating log file.
	closeLog, err := setupLogging(ctx, settings)
	if err != nil {
		return err
	}

	defer closeLog()

	// Only one scheduler may run on a host.
	if err = ensureSingleInstance(listProcesses); err != nil {
		return err
	}

	// Register or unregister the login item; failures are not fatal.
	if err = configureAutostart(ctx, settings.Autostart, opts.ConfigPath); err != nil {
		logger.WarnKV(ctx, "Unable to configure autostart", "error", err)
	}

	// Determine listen address: CLI argument overrides config.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// Open the record backend.
	repository, closeRepository, err := openRepository(ctx, settings)
	if err != nil {
		return fmt.Errorf("open state storage: %w", err)
	}

	defer closeRepository()

	// Build the host collaborators.
	timer := scheduler.NewTimer(ctx, scheduler.WithCheckInterval(settings.Alarm.CheckInterval))
	wake := power.Detect()
	presenter, gate := newPresenter(ctx, settings)

	logger.InfoKV(ctx, "Host capabilities detected", "wake_lock", wake.Name())

	// Create the controller owning the alarm slot.
	alarms, err := controller.New(controller.Dependencies{
		Repository: repository,
		Scheduler:  timer,
		Wake:       wake,
		Sound:      &soundPlayer{player: audio.NewPlayer(settings.Alert.Volume)},
		Presenter:  presenter,
		Gate:       gate,
	}, controller.Options{
		WakeTimeout:  settings.Alarm.WakeTimeout,
		MissedGrace:  settings.Alarm.MissedGrace,
		StartTimeout: settings.Alarm.StartTimeout,
		RearmOnFire:  *settings.Alarm.RearmOnFire,
	})
	if err != nil {
		return fmt.Errorf("initialise controller: %w", err)
	}

	// Deliveries flow from the timer into the controller.
	timer.SetHandler(alarms.Deliver)

	// Restore the persisted record, re-arming or catching up missed alarms.
	if err = alarms.Resume(ctx); err != nil {
		return fmt.Errorf("resume alarm: %w", err)
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with alarm service.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(ctx)))
	api.RegisterAlarmClockServiceServer(grpcServer, api.NewServer(alarms))

	logger.InfoKV(
		ctx,
		"Alarm server listening",
		"listen_address", listenAddress,
		"storage", settings.Storage,
		"state_file", settings.StateFile,
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done

	// End a live alert; the armed alarm stays persisted for the next start.
	alarms.Shutdown(context.WithoutCancel(ctx))
	logger.Info(ctx, "Alarm server stopped")

	return nil
}

// applyOverrides copies command line options over the loaded settings.
func applyOverrides(settings *config.Config, opts *Options) error {
	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}

	if opts.Storage != "" {
		settings.Storage = opts.Storage
	}

	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	if err := config.Validate(settings); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	return nil
}

// setupLogging applies the configured level and attaches the log file.
func setupLogging(ctx context.Context, settings *config.Config) (func(), error) {
	level, ok := logger.ParseLogLevel(settings.LogLevel)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, using info", "log_level", settings.LogLevel)
	}

	logger.SetLevel(level)

	if settings.LogFile == "" {
		return func() {}, nil
	}

	closer, err := logger.AttachFile(settings.LogFile)
	if err != nil {
		return nil, fmt.Errorf("attach log file: %w", err)
	}

	return func() {
		_ = closer.Close()
	}, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise listens on the
// configured address, keeping its host so a loopback default stays local.
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	host, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return net.JoinHostPort(host, port), nil
}
