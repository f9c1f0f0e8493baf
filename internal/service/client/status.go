package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/alarm-clock/internal/config"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/calendar"
)

// StatusOptions configures alarm-status.
type StatusOptions struct {
	Connection

	// ICalPath writes the armed alarm as an iCalendar file when set.
	ICalPath string
	// Upcoming is how many future occurrences to list.
	Upcoming int
}

// occurrenceLayout renders upcoming occurrences.
const occurrenceLayout = "Mon, Jan 2 2006, 3:04 PM"

// RunStatus prints the alarm state and optionally exports it.
func RunStatus(ctx context.Context, opts *StatusOptions, out io.Writer) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-status")

	client, _, err := dial(ctx, &opts.Connection)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := retry(ctx, opts.Wait, client.GetState)
	if err != nil {
		return err
	}

	if _, err = io.WriteString(out, formatSnapshot(snapshot)); err != nil {
		return err
	}

	if opts.Upcoming > 0 && snapshot.Armed != nil {
		occurrences, err := calendar.Upcoming(snapshot.Armed, opts.Upcoming)
		if err != nil {
			return err
		}

		for _, occurrence := range occurrences {
			if _, err = fmt.Fprintf(out, "  %s\n", occurrence.Local().Format(occurrenceLayout)); err != nil {
				return err
			}
		}
	}

	if opts.ICalPath != "" {
		if err = exportCalendar(opts.ICalPath, snapshot.Armed); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Calendar exported", "path", opts.ICalPath)
	}

	return nil
}

// formatSnapshot renders the state as a short report.
func formatSnapshot(snapshot domain.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "State: %s\n", snapshot.State)

	if snapshot.Armed != nil {
		fmt.Fprintln(&b, domain.FormatNext(snapshot.Armed.FireAt.Local()))
	} else {
		fmt.Fprintln(&b, domain.FormatNext(time.Time{}))
	}

	if cfg := snapshot.Config; cfg != nil {
		days := "once"
		if cfg.Repeating() {
			days = cfg.Weekdays.String()
		}

		sound := "none"
		if cfg.HasSound() {
			sound = cfg.SoundRef
		}

		fmt.Fprintf(&b, "Time: %s, days: %s, sound: %s\n", cfg.Time, days, sound)
	}

	if armed := snapshot.Armed; armed != nil && armed.ArmedBy != nil {
		fmt.Fprintf(&b, "Armed by %s at %s\n", armed.ArmedBy, armed.ArmedAt.Local().Format(time.RFC3339))
	}

	if session := snapshot.Session; session != nil {
		fmt.Fprintf(
			&b,
			"Ringing since %s (sound: %t, awake: %t, shown: %t)\n",
			session.StartedAt.Local().Format(time.Kitchen),
			session.SoundPlaying,
			session.WakeHeld,
			session.Presented,
		)
	}

	if !snapshot.LastFiredAt.IsZero() {
		fmt.Fprintf(&b, "Last fired at %s\n", snapshot.LastFiredAt.Local().Format(time.RFC3339))
	}

	return b.String()
}

// exportCalendar writes the armed alarm to path.
func exportCalendar(path string, armed *domain.ArmedAlarm) error {
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("create calendar file: %w", err)
	}

	if err = calendar.Export(file, armed, time.Now()); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}
