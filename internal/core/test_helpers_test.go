package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed while waiting for kind %v", kind)
			}
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent fails if an event of kind arrives within a short grace period.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.After(150 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-deadline:
			return
		}
	}
}

// mustClosed drains ch and fails unless it gets closed in time.
func mustClosed(t *testing.T, ch <-chan *Event) []*Event {
	t.Helper()

	var drained []*Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return drained
			}
			drained = append(drained, ev)
		case <-timeout:
			t.Fatalf("event stream not closed")
			return nil
		}
	}
}

// fakeAuth counts calls and returns a fixed result.
type fakeAuth struct {
	calls  atomic.Int32
	result Result[AccessToken]
	block  chan struct{}
}

func (f *fakeAuth) Execute(ctx context.Context, _, _ string) Result[AccessToken] {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return Err[AccessToken](NewFailure(FailureTimeout, ctx.Err().Error()))
		}
	}
	return f.result
}

func okAuth(token string) *fakeAuth {
	return &fakeAuth{result: Ok(AccessToken{Token: token})}
}

// memTokens is a minimal TokenStore for session tests.
type memTokens struct {
	tokens map[string]AccessToken
}

func (m *memTokens) Persist(_ context.Context, username string, token AccessToken) Result[Success] {
	m.tokens[username] = token
	return Ok(Success{})
}

func (m *memTokens) Fetch(_ context.Context, username string) Result[AccessToken] {
	if tok, ok := m.tokens[username]; ok {
		return Ok(tok)
	}
	return Err[AccessToken](MissingTokenFailure(username))
}

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}
