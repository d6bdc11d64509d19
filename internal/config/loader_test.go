package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "default config should be written")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`port: 9000
users_service:
  request_timeout: 2s
chat:
  room: lobby
token_store:
  driver: sqlite
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.UsersService.RequestTimeout)
	assert.Equal(t, "lobby", cfg.Chat.Room)
	assert.Equal(t, TokenStoreSQLite, cfg.TokenStore.Driver)
	// untouched keys keep their defaults
	assert.Equal(t, "message", cfg.Chat.MessageEvent)
	assert.Equal(t, "http://localhost:3000/users/login", cfg.UsersService.LoginEndpoint)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("USERS_SERVICE_LOGIN_ENDPOINT", "http://users:3000/users/login")
	t.Setenv("TEXTCHAT_CHAT_ROOM", "general")
	t.Setenv("TEXTCHAT_USERS_PORT", "3100")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "http://users:3000/users/login", cfg.UsersService.LoginEndpoint)
	assert.Equal(t, "general", cfg.Chat.Room)
	assert.Equal(t, 3100, cfg.Users.Port)
}

func TestConfig_Addr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, ":3000", cfg.UsersAddr())

	cfg.Host = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}
