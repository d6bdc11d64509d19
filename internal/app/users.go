package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/config"
	"github.com/vovakirdan/textchat-relay/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/textchat-relay/internal/transport/http"
	"github.com/vovakirdan/textchat-relay/internal/users"
)

// UsersApp runs the users service the relay logs in against.
type UsersApp struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           *sqlite.SQLiteStore
	log             *zerolog.Logger
}

// NewUsers constructs the users service with provided configuration.
func NewUsers(cfg *config.Config, logger *zerolog.Logger) (*UsersApp, error) {
	st, err := sqlite.New(cfg.Users.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.Users.DatabasePath).Msg("database initialized")

	jwtConfig := &users.JWTConfig{
		Secret: []byte(cfg.Users.JWTSecret),
		Issuer: cfg.Users.JWTIssuer,
		TTL:    cfg.Users.TokenTTL,
	}
	svc := users.NewService(st, jwtConfig)

	return &UsersApp{
		server:          transporthttp.NewUsersServer(svc, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Addr is the address the users service listens on.
func (a *UsersApp) Addr() string {
	return a.server.Addr
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *UsersApp) Run(ctx context.Context) error {
	return serve(ctx, a.server, a.shutdownTimeout, a.log, func() {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	})
}
