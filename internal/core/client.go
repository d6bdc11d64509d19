package core

import "sync"

// Client is one transport connection as seen by the core layer. The
// transport drains Events and writes them to the wire until the channel is
// closed.
type Client struct {
	ID     string
	Name   string
	Events chan *Event

	mu     sync.Mutex
	closed bool
}

// NewClient constructs a client with an initialized event queue.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan *Event, 16),
	}
}

// deliver queues an event without blocking. It reports false when the queue
// is full or already closed.
func (c *Client) deliver(ev *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// Close ends the event stream. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Events)
}
