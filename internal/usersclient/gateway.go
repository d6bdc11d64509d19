package usersclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

// Gateway issues the health probe and login calls against the users service.
type Gateway struct {
	client         HTTPClient
	healthEndpoint string
	loginEndpoint  string
	log            *zerolog.Logger
}

// NewGateway validates both endpoints and returns a gateway.
func NewGateway(client HTTPClient, healthEndpoint, loginEndpoint string, logger *zerolog.Logger) (*Gateway, error) {
	for name, endpoint := range map[string]string{"health check": healthEndpoint, "login": loginEndpoint} {
		u, err := url.ParseRequestURI(endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("invalid %s endpoint %q", name, endpoint)
		}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "users_gateway").Logger()
	return &Gateway{
		client:         client,
		healthEndpoint: healthEndpoint,
		loginEndpoint:  loginEndpoint,
		log:            &l,
	}, nil
}

// ProbeHealth succeeds when the health endpoint answers 2xx. Any other
// answer is reported as FailureUnavailable with the original message.
func (g *Gateway) ProbeHealth(ctx context.Context) core.Result[core.Success] {
	res := g.client.Get(ctx, g.healthEndpoint)
	if f, failed := res.Failure(); failed {
		if f.Kind == core.FailureRejected {
			f.Kind = core.FailureUnavailable
		}
		return core.Err[core.Success](f)
	}
	g.log.Debug().Str("endpoint", g.healthEndpoint).Msg("users service healthy")
	return core.Ok(core.Success{})
}

// Login posts the credentials and decodes the access token from the reply.
func (g *Gateway) Login(ctx context.Context, creds core.Credentials) core.Result[core.AccessToken] {
	return core.Then(g.client.Post(ctx, g.loginEndpoint, creds), decodeToken)
}

func decodeToken(resp Response) core.Result[core.AccessToken] {
	var token core.AccessToken
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return core.Err[core.AccessToken](core.NewFailure(core.FailureBadResponse, fmt.Sprintf("decode access token: %v", err)))
	}
	if token.Token == "" {
		return core.Err[core.AccessToken](core.NewFailure(core.FailureBadResponse, "users service returned no access token"))
	}
	return core.Ok(token)
}
