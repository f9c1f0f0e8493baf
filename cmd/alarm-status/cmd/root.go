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
	// icalPath is where the armed alarm is exported.
	icalPath string
	// upcoming is how many future occurrences to list.
	upcoming int
	// wait keeps retrying while the server starts.
	wait time.Duration

	// rootCmd represents the base command for showing the alarm state.
	rootCmd = &cobra.Command{
		Use:   "alarm-status [server-address]",
		Short: "Show the alarm state.",
		Long: `Shows the state of the alarm clock daemon: the next alarm, its settings,
who set it and whether it is ringing.

With --upcoming the next occurrences of a repeating alarm are listed.
With --ical the armed alarm is exported as an iCalendar file that calendar
applications can import.`,
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

			return client.RunStatus(ctx, &client.StatusOptions{
				Connection: client.Connection{
					ConfigPath:    cfgPath,
					ServerAddress: serverAddress,
					Wait:          wait,
				},
				ICalPath: icalPath,
				Upcoming: upcoming,
			}, cmd.OutOrStdout())
		},
	}
)

// Execute runs the alarm-status CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&icalPath, "ical", "i", "", "export the armed alarm to this .ics file")
	rootCmd.Flags().IntVarP(&upcoming, "upcoming", "u", 0, "list this many upcoming occurrences")
	rootCmd.Flags().DurationVarP(&wait, "wait", "w", 0, "keep retrying this long while the server is unreachable")
}
