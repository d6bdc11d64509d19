package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/auth"
	"github.com/vovakirdan/textchat-relay/internal/config"
	"github.com/vovakirdan/textchat-relay/internal/core"
	transporthttp "github.com/vovakirdan/textchat-relay/internal/transport/http"
	"github.com/vovakirdan/textchat-relay/internal/usersclient"
)

// App wires together the chat relay core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	tokens          tokenStore
	log             *zerolog.Logger
}

// New constructs the chat relay with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	tokens, err := openTokenStore(ctx, cfg.TokenStore)
	if err != nil {
		return nil, fmt.Errorf("init token store: %w", err)
	}
	logger.Info().Str("driver", cfg.TokenStore.Driver).Msg("token store initialized")

	client := usersclient.NewClient(cfg.UsersService.RequestTimeout)
	gateway, err := usersclient.NewGateway(
		client,
		cfg.UsersService.HealthCheckEndpoint,
		cfg.UsersService.LoginEndpoint,
		logger,
	)
	if err != nil {
		_ = tokens.Close()
		return nil, fmt.Errorf("init users gateway: %w", err)
	}
	login := auth.NewLoginService(gateway, logger)

	names := core.Names{
		Room:         cfg.Chat.Room,
		Message:      cfg.Chat.MessageEvent,
		Notification: cfg.Chat.NotificationEvent,
		Error:        cfg.Chat.ErrorEvent,
	}

	hub := core.NewHub(logger)
	manager := core.NewManager(hub, login, tokens, names, logger)
	server := transporthttp.NewServer(manager, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		tokens:          tokens,
		log:             logger,
	}, nil
}

// Addr is the address the relay listens on.
func (a *App) Addr() string {
	return a.server.Addr
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	return serve(ctx, a.server, a.shutdownTimeout, a.log, func() {
		stopHub()
		if a.tokens != nil {
			if err := a.tokens.Close(); err != nil {
				a.log.Warn().Err(err).Msg("failed to close token store")
			} else {
				a.log.Info().Msg("token store closed")
			}
		}
	})
}

// serve runs server until ctx is cancelled, then shuts it down gracefully and
// calls cleanup.
func serve(ctx context.Context, server *stdhttp.Server, shutdownTimeout time.Duration, logger *zerolog.Logger, cleanup func()) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info().Msg("shutting down http server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			cleanup()
			return err
		}

		cleanup()
		return <-serverErr
	}
}
