package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/service/client"
	"github.com/oshokin/alarm-clock/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the configured server address.
	serverAddress string
	// days is the comma separated weekday list.
	days string
	// sound is the sound file or file:// URI.
	sound string
	// dryRun only previews the next occurrence.
	dryRun bool
	// wait keeps retrying while the server starts.
	wait time.Duration

	// rootCmd represents the base command for arming the alarm.
	rootCmd = &cobra.Command{
		Use:   "alarm-set [HH:MM]",
		Short: "Set the alarm.",
		Long: `Sets the single alarm on the alarm clock daemon.

The time is given as HH:MM. Without --days the alarm rings once, at the next
occurrence of that time. With --days it rings on each listed weekday
(e.g. "mon,wed,fri", "weekdays", "weekends", "daily"); "none" makes it one-shot.

Omitted values are taken from the alarm the daemon last confirmed, so
"alarm-set --days weekends" keeps the time and the sound.
Setting the alarm replaces the previous one.`,
		Example: `  alarm-set 07:00
  alarm-set 06:30 --days weekdays --sound ~/Music/ring.wav
  alarm-set 09:00 --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &client.SetOptions{
				Connection: client.Connection{
					ConfigPath:    cfgPath,
					ServerAddress: serverAddress,
					Wait:          wait,
				},
				DryRun: dryRun,
			}

			if len(args) > 0 {
				options.Time = args[0]
			}

			// Only flags given explicitly replace the saved values.
			if cmd.Flags().Changed("days") {
				options.Days = &days
			}

			if cmd.Flags().Changed("sound") {
				options.Sound = &sound
			}

			return client.RunSet(ctx, options, cmd.OutOrStdout())
		},
	}
)

// Execute runs the alarm-set CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&serverAddress, "server", "a", "", "alarm server address (overrides config)")
	rootCmd.Flags().StringVarP(&days, "days", "d", "", "weekdays to repeat on, \"none\" for once")
	rootCmd.Flags().StringVarP(&sound, "sound", "s", "", "WAV file or file:// URI to loop, \"none\" for silence")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "only show when the alarm would ring")
	rootCmd.Flags().DurationVarP(&wait, "wait", "w", 0, "keep retrying this long while the server is unreachable")
}
