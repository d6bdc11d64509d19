package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/config"
	"github.com/vovakirdan/textchat-relay/internal/core"
	"github.com/vovakirdan/textchat-relay/internal/proto"
	"github.com/vovakirdan/textchat-relay/internal/store/memory"
	"github.com/vovakirdan/textchat-relay/internal/store/sqlite"
	"github.com/vovakirdan/textchat-relay/internal/users"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestUsersService creates a users service for testing.
func createTestUsersService(t *testing.T, st *sqlite.SQLiteStore, jwtSecret string) *users.Service {
	t.Helper()

	jwtConfig := &users.JWTConfig{
		Secret: []byte(jwtSecret),
		Issuer: "test",
		TTL:    24 * time.Hour,
	}

	return users.NewService(st, jwtConfig)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Port = 0
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

// passwordAuth accepts the listed username/password pairs and answers like
// the users service otherwise.
type passwordAuth map[string]string

func (a passwordAuth) Execute(_ context.Context, username, password string) core.Result[core.AccessToken] {
	if want, ok := a[username]; ok && want == password {
		return core.Ok(core.AccessToken{Token: "token-" + username})
	}
	return core.Err[core.AccessToken](core.NewFailure(core.FailureRejected, "request failed with status code 401: invalid credentials"))
}

type relayHarness struct {
	server *httptest.Server
	tokens *memory.TokenStore
}

func startRelay(t *testing.T, auth core.Authenticator, cfg config.Config) *relayHarness {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	tokens := memory.New()
	manager := core.NewManager(hub, auth, tokens, core.DefaultNames(), &logger)
	server := NewServer(manager, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return &relayHarness{server: ts, tokens: tokens}
}

func (h *relayHarness) wsURL() string {
	return strings.Replace(h.server.URL, "http", "ws", 1) + "/ws"
}

// dial connects with credentials in the handshake headers. Empty values are
// left out.
func dial(ctx context.Context, t *testing.T, url, username, password string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if username != "" {
		header.Set("username", username)
	}
	if password != "" {
		header.Set("password", password)
	}

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func (f frame) message(t *testing.T) proto.EventMessage {
	t.Helper()

	var msg proto.EventMessage
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
	return msg
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return f
}

func sendText(ctx context.Context, t *testing.T, conn *websocket.Conn, typ, text string) {
	t.Helper()

	payload, _ := json.Marshal(proto.MsgData{Text: text})
	data, _ := json.Marshal(proto.Inbound{Type: typ, Data: payload})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}
