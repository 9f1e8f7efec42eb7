package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/platform"
	"github.com/vovakirdan/wirechat-client/internal/platform/local"
	"github.com/vovakirdan/wirechat-client/internal/platform/rest"
	"github.com/vovakirdan/wirechat-client/internal/sync"
	transporthttp "github.com/vovakirdan/wirechat-client/internal/transport/http"
)

// App wires the platform, the synchronization controller and the view server.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	ctrl            *sync.Controller
	pf              platform.Platform
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	pf, err := newPlatform(cfg, log.Component(logger, "platform"))
	if err != nil {
		return nil, fmt.Errorf("init platform: %w", err)
	}

	ctrl, err := sync.New(ctx, pf, sync.Config{
		Heartbeat: cfg.Heartbeat,
		Notify: func(msg string) {
			logger.Warn().Str("notice", msg).Msg("user notification")
		},
	}, log.Component(logger, "sync"))
	if err != nil {
		pf.Close()
		return nil, err
	}

	logger.Info().Str("user_id", ctrl.UserID()).Msg("session resolved")

	server := transporthttp.NewServer(ctrl, cfg, log.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		ctrl:            ctrl,
		pf:              pf,
		log:             logger,
	}, nil
}

func newPlatform(cfg config.Config, logger *zerolog.Logger) (platform.Platform, error) {
	if cfg.Local.Enabled {
		logger.Info().Str("db_path", cfg.Local.DatabasePath).Msg("using local backend")
		return local.New(local.Options{
			DatabasePath: cfg.Local.DatabasePath,
			BlobDir:      cfg.Local.BlobDir,
			UserID:       cfg.Local.UserID,
			Username:     cfg.Local.Username,
		}, logger)
	}

	logger.Info().Str("backend_url", cfg.Backend.URL).Msg("using hosted backend")
	return rest.New(rest.Options{
		BaseURL:     cfg.Backend.URL,
		APIKey:      cfg.Backend.APIKey,
		AccessToken: cfg.Backend.AccessToken,
		Bucket:      cfg.Backend.Bucket,
	}, logger)
}

// Run starts the controller and the view server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ctrlErr := make(chan error, 1)
	serverErr := make(chan error, 1)

	go func() {
		ctrlErr <- a.ctrl.Run(ctx)
	}()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case err := <-ctrlErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("controller: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down view server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		<-ctrlErr // waits for the controller to mark the user offline
		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the platform connection.
func (a *App) cleanup() {
	if a.pf != nil {
		if err := a.pf.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close platform")
		} else {
			a.log.Info().Msg("platform closed")
		}
	}
}
