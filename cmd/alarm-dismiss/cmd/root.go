package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/client"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string

	// rootCmd represents the base command for stopping a ringing alarm.
	rootCmd = &cobra.Command{
		Use:   "alarm-dismiss [server-address]",
		Short: "Stop the ringing alarm.",
		Long: `Stops the ringing alarm: the sound, the notification, the alert window and
the wake lock. A repeating alarm stays set for its next day.

Nothing ringing is not an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return client.RunDismiss(ctx, &client.DismissOptions{
				Connection: client.Connection{
					ConfigPath:    cfgPath,
					ServerAddress: serverAddress,
				},
			}, cmd.OutOrStdout())
		},
	}
)

// Execute runs the alarm-dismiss CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
