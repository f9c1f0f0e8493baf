package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/server"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile overrides where the alarm record is persisted.
	stateFile string
	// storage overrides the record backend.
	storage string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "alarm-server [listen-address]",
		Short: "Run the alarm clock daemon.",
		Long: `Starts the alarm clock daemon that owns the single alarm and rings it.

The daemon keeps the armed alarm in a JSON file or a SQLite database and restores
it on start, firing alarms missed by a few minutes and re-arming repeating ones.
When the alarm fires it keeps the machine awake, loops the configured sound and
shows an urgent notification plus a full-screen window until dismissed.

The gRPC API listens on the configured address (loopback by default). A listen
address can be provided as argument to override config (e.g., 127.0.0.1:9090).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StateFile:     stateFile,
				Storage:       storage,
				LogLevel:      logLevel,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path of the alarm record (overrides config)")
	rootCmd.Flags().StringVar(&storage, "storage", "", "record backend: file or sqlite (overrides config)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error (overrides config)")
}
