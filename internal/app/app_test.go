package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/textchat-relay/internal/config"
	"github.com/vovakirdan/textchat-relay/internal/core"
)

func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestOpenTokenStore(t *testing.T) {
	ctx := context.Background()

	mem, err := openTokenStore(ctx, config.TokenStoreConfig{Driver: config.TokenStoreMemory})
	require.NoError(t, err)
	assert.True(t, mem.Persist(ctx, "alice", core.AccessToken{Token: "t"}).IsOk())
	assert.NoError(t, mem.Close())

	db, err := openTokenStore(ctx, config.TokenStoreConfig{
		Driver: config.TokenStoreSQLite,
		Path:   filepath.Join(t.TempDir(), "tokens.db"),
	})
	require.NoError(t, err)
	assert.True(t, db.Persist(ctx, "alice", core.AccessToken{Token: "t"}).IsOk())
	assert.NoError(t, db.Close())

	_, err = openTokenStore(ctx, config.TokenStoreConfig{Driver: "etcd"})
	assert.Error(t, err)
}

func TestNew_RejectsInvalidEndpoints(t *testing.T) {
	cfg := config.Default()
	cfg.UsersService.LoginEndpoint = "not a url"
	logger := zerolog.Nop()

	_, err := New(context.Background(), &cfg, &logger)
	assert.Error(t, err)
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)
	cfg.Users.Port = freePort(t)
	cfg.Users.DatabasePath = filepath.Join(t.TempDir(), "users.db")
	cfg.ShutdownTimeout = time.Second
	logger := zerolog.Nop()

	relay, err := New(context.Background(), &cfg, &logger)
	require.NoError(t, err)
	usersApp, err := NewUsers(&cfg, &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	relayDone := make(chan error, 1)
	usersDone := make(chan error, 1)
	go func() { relayDone <- relay.Run(ctx) }()
	go func() { usersDone <- usersApp.Run(ctx) }()

	for _, url := range []string{
		"http://" + relay.Addr() + "/health",
		"http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Users.Port)) + "/healthz",
	} {
		require.Eventually(t, func() bool {
			resp, err := http.Get(url)
			if err != nil {
				return false
			}
			resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 2*time.Second, 20*time.Millisecond, url)
	}

	cancel()
	for _, done := range []chan error{relayDone, usersDone} {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("app did not stop")
		}
	}
}
