// Package redisstore keeps access tokens in Redis so several relay processes can
// share them.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

const keyPrefix = "textchat:access_token:"

// redisClient is the subset of go-redis the store needs.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// TokenStore implements core.TokenStore on Redis strings.
type TokenStore struct {
	client redisClient
	ttl    time.Duration
}

// New connects to addr and verifies the connection. A zero ttl keeps tokens
// until overwritten.
func New(ctx context.Context, addr string, ttl time.Duration) (*TokenStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewWithClient(client, ttl)
}

// NewWithClient wraps an existing client.
func NewWithClient(client redisClient, ttl time.Duration) (*TokenStore, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	return &TokenStore{client: client, ttl: ttl}, nil
}

// Persist stores token under username.
func (s *TokenStore) Persist(ctx context.Context, username string, token core.AccessToken) core.Result[core.Success] {
	if err := s.client.Set(ctx, key(username), token.Token, s.ttl).Err(); err != nil {
		return core.Err[core.Success](core.NewFailure(core.FailureInternal, fmt.Sprintf("persist access token: %v", err)))
	}
	return core.Ok(core.Success{})
}

// Fetch returns the token stored under username.
func (s *TokenStore) Fetch(ctx context.Context, username string) core.Result[core.AccessToken] {
	val, err := s.client.Get(ctx, key(username)).Result()
	if errors.Is(err, redis.Nil) {
		return core.Err[core.AccessToken](core.MissingTokenFailure(username))
	}
	if err != nil {
		return core.Err[core.AccessToken](core.NewFailure(core.FailureInternal, fmt.Sprintf("fetch access token: %v", err)))
	}
	return core.Ok(core.AccessToken{Token: val})
}

// Close releases the connection pool.
func (s *TokenStore) Close() error {
	return s.client.Close()
}

func key(username string) string {
	return keyPrefix + username
}
