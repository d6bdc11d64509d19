package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MissingCredentialsMessage is sent to clients that connect without both a
// username and a password.
const MissingCredentialsMessage = "You should provide [username, password] in your headers to login."

// State is a session lifecycle stage.
type State int

const (
	// StatePending is a freshly accepted connection.
	StatePending State = iota
	// StateAuthenticating means the login call is in flight.
	StateAuthenticating
	// StateJoined means the session is in its room and relays messages.
	StateJoined
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticating:
		return "authenticating"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Authenticator turns credentials into an access token.
type Authenticator interface {
	Execute(ctx context.Context, username, password string) Result[AccessToken]
}

// Names are the wire names of the room and the events sessions emit.
type Names struct {
	Room         string
	Message      string
	Notification string
	Error        string
}

// DefaultNames returns the stock room and event names.
func DefaultNames() Names {
	return Names{
		Room:         "chat",
		Message:      "message",
		Notification: "notifications",
		Error:        "error",
	}
}

// Manager creates sessions sharing one hub, authenticator and token store.
type Manager struct {
	hub    *Hub
	auth   Authenticator
	tokens TokenStore
	names  Names
	log    *zerolog.Logger
}

// NewManager builds a session manager. tokens may be nil.
func NewManager(hub *Hub, auth Authenticator, tokens TokenStore, names Names, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		hub:    hub,
		auth:   auth,
		tokens: tokens,
		names:  names,
		log:    logger,
	}
}

// Names returns the configured room and event names.
func (m *Manager) Names() Names {
	return m.names
}

// Stats reports the hub's room and client counts.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.hub.Stats(ctx)
}

// NewSession wraps a freshly accepted client in a Pending session.
func (m *Manager) NewSession(client *Client) *Session {
	l := m.log.With().Str("conn_id", client.ID).Logger()
	return &Session{
		manager: m,
		client:  client,
		log:     l,
	}
}

// Session drives one connection from accept to close.
type Session struct {
	manager *Manager
	client  *Client
	log     zerolog.Logger

	mu    sync.Mutex
	state State
	room  string
}

// Client returns the underlying connection handle.
func (s *Session) Client() *Client {
	return s.client
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Room returns the joined room name, or "" before the session joined.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Open authenticates the session and joins it to the default room. On
// failure the failure message is queued for the client and the event stream
// is closed. Open may be called once; later calls fail.
func (s *Session) Open(ctx context.Context, creds Credentials) Result[Success] {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return Err[Success](NewFailure(FailureInternal, "session already opened"))
	}
	if !creds.Complete() {
		s.mu.Unlock()
		f := NewFailure(FailureMissingCredentials, MissingCredentialsMessage)
		s.reject(f)
		return Err[Success](f)
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	s.log.Debug().Str("user", creds.Username).Msg("authenticating")
	started := time.Now()

	var out Result[Success]
	s.manager.auth.Execute(ctx, creds.Username, creds.Password).Match(
		func(token AccessToken) {
			out = s.join(ctx, creds.Username, token)
		},
		func(f Failure) {
			s.log.Info().
				Str("user", creds.Username).
				Str("kind", string(f.Kind)).
				Dur("took", time.Since(started)).
				Msg("login failed")
			s.reject(f)
			out = Err[Success](f)
		},
	)
	return out
}

func (s *Session) join(ctx context.Context, username string, token AccessToken) Result[Success] {
	m := s.manager

	s.mu.Lock()
	if s.state != StateAuthenticating {
		// Closed while the login call was in flight.
		s.mu.Unlock()
		return Err[Success](NewFailure(FailureInternal, "connection closed during login"))
	}
	s.client.Name = username
	s.room = m.names.Room
	s.state = StateJoined
	s.log = s.log.With().Str("user", username).Logger()
	joined := m.hub.Join(s.client, s.room)
	s.mu.Unlock()

	if !joined {
		f := NewFailure(FailureInternal, "chat is shutting down")
		s.reject(f)
		return Err[Success](f)
	}

	if m.tokens != nil {
		m.tokens.Persist(ctx, username, token).Match(
			func(Success) {},
			func(f Failure) {
				s.log.Warn().Str("error", f.Message).Msg("failed to persist access token")
			},
		)
	}

	s.log.Info().Str("room", s.room).Msg("user logged in")
	m.hub.BroadcastToAll(s.notification(username + " joined the chat"))
	return Ok(Success{})
}

// Relay broadcasts text to the session's room. It reports false, dropping
// the text, unless the session is joined.
func (s *Session) Relay(text string) bool {
	s.mu.Lock()
	state, room, log := s.state, s.room, s.log
	s.mu.Unlock()

	if state != StateJoined {
		log.Debug().Stringer("state", state).Msg("dropping input outside joined state")
		return false
	}

	log.Info().Str("room", room).Int("len", len(text)).Msg("relaying message")
	return s.manager.hub.BroadcastToRoom(room, &Event{
		Kind:      EventRoomMessage,
		Name:      s.manager.names.Message,
		Room:      room,
		User:      s.client.Name,
		Payload:   text,
		CreatedAt: time.Now(),
	})
}

// Notify queues an error for this client only. Used for protocol errors that
// do not end the session.
func (s *Session) Notify(err *CoreError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.client.deliver(s.errorEvent(err))
}

// Close moves the session to Closed from any state. A joined session leaves
// its room and a logout notification goes to everyone else. Close is
// idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	prev, log := s.state, s.log
	s.state = StateClosed
	s.mu.Unlock()

	switch prev {
	case StateClosed:
		return
	case StateJoined:
		if !s.manager.hub.Leave(s.client) {
			s.client.Close()
		}
		s.manager.hub.BroadcastToAll(s.notification(s.client.Name + " left the chat"))
		log.Info().Msg("user logged out")
	default:
		s.client.Close()
		log.Debug().Stringer("state", prev).Msg("closed before join")
	}
}

// reject queues the failure for the client and closes the session.
func (s *Session) reject(f Failure) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.client.deliver(s.errorEvent(failureError(f)))
	s.client.Close()
}

func (s *Session) notification(text string) *Event {
	return &Event{
		Kind:      EventNotification,
		Name:      s.manager.names.Notification,
		User:      s.client.Name,
		Payload:   text,
		CreatedAt: time.Now(),
	}
}

func (s *Session) errorEvent(err *CoreError) *Event {
	return &Event{
		Kind:      EventError,
		Name:      s.manager.names.Error,
		User:      s.client.Name,
		Error:     err,
		CreatedAt: time.Now(),
	}
}
