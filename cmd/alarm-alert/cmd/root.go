package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/alert"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress is the daemon that started the window.
	serverAddress string
	// title is the headline.
	title string
	// message is the detail line.
	message string

	// rootCmd represents the base command for the full-screen alert window.
	rootCmd = &cobra.Command{
		Use:   "alarm-alert",
		Short: "Show the full-screen alarm window.",
		Long: `Shows the full-screen alarm window. It is started by the alarm server when
the alarm fires and is not meant to be run by hand.

Pressing Dismiss or closing the window stops the alarm.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return alert.Run(ctx, &alert.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Title:         title,
				Message:       message,
			})
		},
	}
)

// Execute runs the alarm-alert CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVar(&serverAddress, "server", "", "alarm server address (overrides config)")
	rootCmd.Flags().StringVar(&title, "title", "", "window headline")
	rootCmd.Flags().StringVar(&message, "message", "", "window message")
}
