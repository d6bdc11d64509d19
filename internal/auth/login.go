// Package auth sequences the users service health probe and login call.
package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

// Gateway is the remote users service as seen by the login flow.
type Gateway interface {
	ProbeHealth(ctx context.Context) core.Result[core.Success]
	Login(ctx context.Context, creds core.Credentials) core.Result[core.AccessToken]
}

// LoginService authenticates users against the users service. It never
// retries and never caches.
type LoginService struct {
	gateway Gateway
	log     *zerolog.Logger
}

// NewLoginService creates a login service over gw.
func NewLoginService(gw Gateway, logger *zerolog.Logger) *LoginService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "login").Logger()
	return &LoginService{gateway: gw, log: &l}
}

// Execute probes the users service and, only if it is healthy, logs in.
// Failures from either step are returned unchanged.
func (s *LoginService) Execute(ctx context.Context, username, password string) core.Result[core.AccessToken] {
	started := time.Now()

	probe := s.gateway.ProbeHealth(ctx)
	if f, failed := probe.Failure(); failed {
		s.log.Warn().Str("kind", string(f.Kind)).Str("error", f.Message).Msg("users service health probe failed")
	}

	res := core.Then(probe, func(core.Success) core.Result[core.AccessToken] {
		return s.gateway.Login(ctx, core.Credentials{Username: username, Password: password})
	})

	s.log.Debug().
		Str("user", username).
		Bool("ok", res.IsOk()).
		Dur("took", time.Since(started)).
		Msg("login finished")
	return res
}
