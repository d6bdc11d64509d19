package usersclient

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

type fakeUsersService struct {
	healthStatus int
	loginStatus  int
	loginBody    string
	delay        time.Duration

	mu         sync.Mutex
	lastCreds  core.Credentials
	loginCalls atomic.Int32
}

func (f *fakeUsersService) creds() core.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCreds
}

func (f *fakeUsersService) start(t *testing.T) *httptest.Server {
	t.Helper()

	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		w.WriteHeader(f.healthStatus)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/users/login", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		f.loginCalls.Add(1)
		if r.Method != stdhttp.MethodPost {
			w.WriteHeader(stdhttp.StatusMethodNotAllowed)
			return
		}
		var creds core.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		f.mu.Lock()
		f.lastCreds = creds
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.loginStatus)
		_, _ = w.Write([]byte(f.loginBody))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestGateway(t *testing.T, ts *httptest.Server, timeout time.Duration) *Gateway {
	t.Helper()

	gw, err := NewGateway(NewClient(timeout), ts.URL+"/healthz", ts.URL+"/users/login", nil)
	require.NoError(t, err)
	return gw
}

func TestNewGatewayRejectsInvalidEndpoints(t *testing.T) {
	_, err := NewGateway(NewClient(time.Second), "not a url", "http://localhost/users/login", nil)
	assert.Error(t, err)

	_, err = NewGateway(NewClient(time.Second), "http://localhost/healthz", "ftp://localhost/login", nil)
	assert.Error(t, err)
}

func TestProbeHealth(t *testing.T) {
	svc := &fakeUsersService{healthStatus: stdhttp.StatusOK}
	gw := newTestGateway(t, svc.start(t), time.Second)

	assert.True(t, gw.ProbeHealth(context.Background()).IsOk())
}

func TestProbeHealthUnhealthyStatus(t *testing.T) {
	svc := &fakeUsersService{healthStatus: stdhttp.StatusServiceUnavailable}
	gw := newTestGateway(t, svc.start(t), time.Second)

	f, failed := gw.ProbeHealth(context.Background()).Failure()
	require.True(t, failed)
	assert.Equal(t, core.FailureUnavailable, f.Kind)
	assert.Contains(t, f.Message, "503")
}

func TestProbeHealthUnreachable(t *testing.T) {
	svc := &fakeUsersService{healthStatus: stdhttp.StatusOK}
	ts := svc.start(t)
	gw := newTestGateway(t, ts, time.Second)
	ts.Close()

	f, failed := gw.ProbeHealth(context.Background()).Failure()
	require.True(t, failed)
	assert.Equal(t, core.FailureUnavailable, f.Kind)
}

func TestProbeHealthTimeout(t *testing.T) {
	svc := &fakeUsersService{healthStatus: stdhttp.StatusOK, delay: 300 * time.Millisecond}
	gw := newTestGateway(t, svc.start(t), 50*time.Millisecond)

	f, failed := gw.ProbeHealth(context.Background()).Failure()
	require.True(t, failed)
	assert.Equal(t, core.FailureTimeout, f.Kind)
}

func TestLoginDecodesToken(t *testing.T) {
	svc := &fakeUsersService{loginStatus: stdhttp.StatusOK, loginBody: `{"token":"valid_token_for_now"}`}
	gw := newTestGateway(t, svc.start(t), time.Second)

	tok, ok := gw.Login(context.Background(), core.Credentials{Username: "alice", Password: "secret"}).Value()
	require.True(t, ok)
	assert.Equal(t, "valid_token_for_now", tok.Token)
	assert.Equal(t, core.Credentials{Username: "alice", Password: "secret"}, svc.creds())
}

func TestLoginRejectedKeepsServerMessage(t *testing.T) {
	svc := &fakeUsersService{loginStatus: stdhttp.StatusUnauthorized, loginBody: `{"error":"invalid credentials"}`}
	gw := newTestGateway(t, svc.start(t), time.Second)

	f, failed := gw.Login(context.Background(), core.Credentials{Username: "alice", Password: "bad"}).Failure()
	require.True(t, failed)
	assert.Equal(t, core.FailureRejected, f.Kind)
	assert.Equal(t, "request failed with status code 401: invalid credentials", f.Message)
	assert.EqualValues(t, 1, svc.loginCalls.Load())
}

func TestLoginWithoutTokenIsBadResponse(t *testing.T) {
	svc := &fakeUsersService{loginStatus: stdhttp.StatusOK, loginBody: `{"status":"ok"}`}
	gw := newTestGateway(t, svc.start(t), time.Second)

	f, failed := gw.Login(context.Background(), core.Credentials{Username: "alice", Password: "secret"}).Failure()
	require.True(t, failed)
	assert.Equal(t, core.FailureBadResponse, f.Kind)
}

func TestLoginHonoursCallerCancellation(t *testing.T) {
	svc := &fakeUsersService{loginStatus: stdhttp.StatusOK, loginBody: `{"token":"x"}`}
	gw := newTestGateway(t, svc.start(t), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, gw.Login(ctx, core.Credentials{Username: "alice", Password: "secret"}).IsOk())
}
