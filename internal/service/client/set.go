package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	api "github.com/oshokin/alarm-clock/internal/api/grpc/alarm"
	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
)

// SetOptions configures alarm-set.
type SetOptions struct {
	Connection

	// Time is the wake time as HH:MM; empty keeps the saved time.
	Time string
	// Days is the weekday list; nil keeps the saved days.
	Days *string
	// Sound is the sound reference; nil keeps the saved sound.
	Sound *string
	// DryRun only previews the next occurrence.
	DryRun bool
}

// errTimeRequired is returned when no time is given and none is saved.
var errTimeRequired = errors.New("alarm time is required, nothing was saved before")

// RunSet arms the alarm, or previews it with DryRun, and prints the status line.
func RunSet(ctx context.Context, opts *SetOptions, out io.Writer) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-set")

	client, cfg, err := dial(ctx, &opts.Connection)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	// Start from the configuration the server last confirmed.
	snapshot, err := retry(ctx, opts.Wait, client.GetState)
	if err != nil {
		return err
	}

	alarmConfig, err := mergeConfig(snapshot.Config, opts)
	if err != nil {
		return err
	}

	logger.InfoKV(
		ctx,
		"Requesting alarm",
		"server_address", cfg.ServerAddress,
		"time", alarmConfig.Time.String(),
		"days", alarmConfig.Weekdays.String(),
		"sound", alarmConfig.SoundRef,
		"dry_run", opts.DryRun,
	)

	if opts.DryRun {
		result, err := client.Preview(ctx, alarmConfig)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "%s\n%s\n", result.Message, domain.FormatNext(result.FireAt))

		return err
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	response, err := retry(ctx, opts.Wait, func(ctx context.Context) (api.ArmResponse, error) {
		return client.Arm(ctx, alarmConfig, actor)
	})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm armed", "alarm_id", response.AlarmID, "fire_at", response.Result.FireAt)

	_, err = fmt.Fprintf(out, "%s\n%s\n", response.Result.Message, domain.FormatNext(response.Result.FireAt))

	return err
}

// mergeConfig overlays the given options on the saved configuration.
func mergeConfig(saved *domain.Config, opts *SetOptions) (domain.Config, error) {
	var merged domain.Config
	if saved != nil {
		merged = *saved
	}

	switch {
	case opts.Time != "":
		tod, err := domain.ParseTimeOfDay(opts.Time)
		if err != nil {
			return domain.Config{}, err
		}

		merged.Time = tod
	case saved == nil:
		return domain.Config{}, errTimeRequired
	}

	if opts.Days != nil {
		days, err := domain.ParseWeekdays(*opts.Days)
		if err != nil {
			return domain.Config{}, err
		}

		merged.Weekdays = days
	}

	if opts.Sound != nil {
		ref, err := absSoundRef(*opts.Sound)
		if err != nil {
			return domain.Config{}, err
		}

		merged.SoundRef = ref
	}

	return merged, nil
}

// absSoundRef turns a local sound path into an absolute one, since the
// daemon resolves paths against its own working directory. URIs pass through.
func absSoundRef(value string) (string, error) {
	ref := domain.NormalizeSoundRef(value)
	if ref == "" || strings.Contains(ref, "://") {
		return ref, nil
	}

	if ref == "~" || strings.HasPrefix(ref, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", ref, err)
		}

		ref = filepath.Join(home, strings.TrimPrefix(ref, "~"))
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", fmt.Errorf("resolve sound path %q: %w", ref, err)
	}

	return abs, nil
}
