package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vovakirdan/textchat-relay/internal/config"
	"github.com/vovakirdan/textchat-relay/internal/core"
	"github.com/vovakirdan/textchat-relay/internal/store/memory"
	"github.com/vovakirdan/textchat-relay/internal/store/redisstore"
	"github.com/vovakirdan/textchat-relay/internal/store/sqlite"
)

type tokenStore interface {
	core.TokenStore
	io.Closer
}

type memoryTokens struct {
	*memory.TokenStore
}

func (memoryTokens) Close() error { return nil }

// openTokenStore builds the token store selected by cfg.Driver.
func openTokenStore(ctx context.Context, cfg config.TokenStoreConfig) (tokenStore, error) {
	switch cfg.Driver {
	case "", config.TokenStoreMemory:
		return memoryTokens{memory.New()}, nil
	case config.TokenStoreSQLite:
		st, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.TokenStoreRedis:
		st, err := redisstore.New(ctx, cfg.RedisAddr, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown token store driver %q", cfg.Driver)
	}
}
