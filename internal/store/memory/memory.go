// Package memory keeps access tokens in process memory.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

// TokenStore is a map-backed core.TokenStore. Tokens are lost on restart.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]core.AccessToken
}

// New returns an empty store.
func New() *TokenStore {
	return &TokenStore{tokens: make(map[string]core.AccessToken)}
}

// Persist stores token under username, replacing any previous one.
func (s *TokenStore) Persist(_ context.Context, username string, token core.AccessToken) core.Result[core.Success] {
	if strings.TrimSpace(username) == "" {
		return core.Err[core.Success](core.NewFailure(core.FailureInternal, "username is required"))
	}

	s.mu.Lock()
	s.tokens[username] = token
	s.mu.Unlock()
	return core.Ok(core.Success{})
}

// Fetch returns the token stored under username.
func (s *TokenStore) Fetch(_ context.Context, username string) core.Result[core.AccessToken] {
	s.mu.RLock()
	token, ok := s.tokens[username]
	s.mu.RUnlock()

	if !ok {
		return core.Err[core.AccessToken](core.MissingTokenFailure(username))
	}
	return core.Ok(token)
}
