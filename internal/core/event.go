package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage carries a relayed chat message.
	EventRoomMessage EventKind = iota
	// EventNotification carries a human readable announcement (login, logout).
	EventNotification
	// EventError notifies a single client about a failure.
	EventError
)

// Event is one fan-out unit. Name is the wire event name and Payload the
// opaque text; both exist only for the duration of the broadcast.
type Event struct {
	Kind      EventKind
	Name      string
	Room      string
	User      string
	Payload   string
	CreatedAt time.Time
	Error     *CoreError
}
