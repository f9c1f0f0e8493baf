package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/logger"
	repo "github.com/oshokin/alarm-clock/internal/repository/state"
	"github.com/oshokin/alarm-clock/internal/service/audio"
	"github.com/oshokin/alarm-clock/internal/service/controller"
	"github.com/oshokin/alarm-clock/internal/service/notify"
	"github.com/oshokin/alarm-clock/internal/service/permission"
)

// openRepository opens the configured record backend. The returned function
// releases it.
func openRepository(ctx context.Context, settings *config.Config) (repo.Repository, func(), error) {
	switch settings.Storage {
	case config.StorageSQLite:
		repository, err := repo.NewSQLiteRepository(ctx, settings.StateFile)
		if err != nil {
			return nil, nil, err
		}

		return repository, func() {
			if err := repository.Close(); err != nil {
				logger.WarnKV(ctx, "Unable to close state database", "error", err)
			}
		}, nil
	case config.StorageFile, "":
		return repo.NewFileRepository(settings.StateFile), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage %q", settings.Storage)
	}
}

// soundPlayer adapts audio.Player to the controller.
type soundPlayer struct {
	player *audio.Player
}

func (s *soundPlayer) Play(ctx context.Context, ref string) (controller.Playback, error) {
	playback, err := s.player.Play(ctx, ref)
	if err != nil {
		return nil, err
	}

	return playback, nil
}

// newPresenter builds the alert surfaces and the permission gate probing them.
func newPresenter(ctx context.Context, settings *config.Config) (notify.Presenter, *permission.HostGate) {
	var (
		primary notify.Presenter
		probes  []permission.ProbeFunc
	)

	if !settings.Alert.DisableNotifications {
		bus := notify.NewDBus(settings.Alert.AppName)
		primary = bus
		probes = append(probes, bus.Ping)
	}

	launcher := notify.NewLauncher(settings.Alert.Launcher, settings.ServerAddress)
	probes = append(probes, func(context.Context) error {
		return launcher.Ready()
	})

	if err := launcher.Ready(); err != nil {
		logger.WarnKV(ctx, "Alert window is not available", "error", err)
	}

	presenter := notify.NewRedundant(primary, launcher, *settings.Alert.AlwaysLaunch)
	gate := permission.NewHostGate(*settings.Alarm.ExactAlarms, probes...)

	return presenter, gate
}

// loggingInterceptor logs every RPC with its status code and duration.
func loggingInterceptor(ctx context.Context) grpc.UnaryServerInterceptor {
	return func(
		callCtx context.Context,
		request any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		startedAt := time.Now()
		response, err := handler(callCtx, request)

		logger.DebugKV(
			ctx,
			"RPC handled",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(startedAt),
		)

		return response, err
	}
}
