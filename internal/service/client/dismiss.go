package client

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/service/common"
)

// DismissOptions configures alarm-dismiss.
type DismissOptions struct {
	Connection
}

// RunDismiss stops the ringing alarm. Nothing ringing is not an error.
func RunDismiss(ctx context.Context, opts *DismissOptions, out io.Writer) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-dismiss")

	client, _, err := dial(ctx, &opts.Connection)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	before, err := retry(ctx, opts.Wait, client.GetState)
	if err != nil {
		return err
	}

	after, err := client.Dismiss(ctx, actor)
	if err != nil {
		return err
	}

	if before.Session == nil {
		logger.Info(ctx, "No alarm was ringing")
	} else {
		logger.InfoKV(ctx, "Alarm dismissed", "session_id", before.Session.ID, "actor", actor.String())
	}

	_, err = fmt.Fprint(out, formatSnapshot(after))

	return err
}
