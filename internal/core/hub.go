package core

import (
	"context"

	"github.com/rs/zerolog"
)

type opKind int

const (
	opJoin opKind = iota
	opLeave
	opBroadcastRoom
	opBroadcastAll
	opStats
)

type hubOp struct {
	kind   opKind
	client *Client
	room   string
	event  *Event
	reply  chan Stats
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Rooms   int
	Clients int
}

// Hub is the connection registry and broadcast engine. All membership
// changes and fan-outs are applied one at a time by the Run goroutine, so a
// single caller's operations take effect in the order they were submitted.
type Hub struct {
	ops  chan hubOp
	done chan struct{}
	log  *zerolog.Logger

	clients map[*Client]string
	rooms   map[string]*Room
}

// NewHub creates a hub. Call Run before submitting operations.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "hub").Logger()
	return &Hub{
		ops:     make(chan hubOp, 256),
		done:    make(chan struct{}),
		log:     &l,
		clients: make(map[*Client]string),
		rooms:   make(map[string]*Room),
	}
}

// Run processes operations until ctx is cancelled. On exit every registered
// client's event stream is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case op := <-h.ops:
			h.apply(op)
		case <-ctx.Done():
			for client := range h.clients {
				client.Close()
			}
			h.log.Debug().Int("clients", len(h.clients)).Msg("hub stopped")
			return
		}
	}
}

// Join registers the client and places it in room, leaving any previous room.
func (h *Hub) Join(c *Client, room string) bool {
	return h.submit(hubOp{kind: opJoin, client: c, room: room})
}

// Leave unregisters the client and closes its event stream.
func (h *Hub) Leave(c *Client) bool {
	return h.submit(hubOp{kind: opLeave, client: c})
}

// BroadcastToRoom fans the event out to the members of room only.
func (h *Hub) BroadcastToRoom(room string, ev *Event) bool {
	return h.submit(hubOp{kind: opBroadcastRoom, room: room, event: ev})
}

// BroadcastToAll fans the event out to every registered client.
func (h *Hub) BroadcastToAll(ev *Event) bool {
	return h.submit(hubOp{kind: opBroadcastAll, event: ev})
}

// Stats reports room and client counts.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if !h.submit(hubOp{kind: opStats, reply: reply}) {
		return Stats{}, ErrHubStopped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// submit hands the operation to Run. It reports false once the hub stopped.
func (h *Hub) submit(op hubOp) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.ops <- op:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) apply(op hubOp) {
	switch op.kind {
	case opJoin:
		h.join(op.client, op.room)
	case opLeave:
		h.leave(op.client)
	case opBroadcastRoom:
		room, ok := h.rooms[op.room]
		if !ok {
			h.log.Debug().Str("room", op.room).Msg("broadcast to empty room")
			return
		}
		if n := room.Broadcast(op.event); n < room.Len() {
			h.log.Debug().Str("room", op.room).Int("dropped", room.Len()-n).Msg("slow consumers skipped")
		}
	case opBroadcastAll:
		dropped := 0
		for client := range h.clients {
			if !client.deliver(op.event) {
				dropped++
			}
		}
		if dropped > 0 {
			h.log.Debug().Int("dropped", dropped).Msg("slow consumers skipped")
		}
	case opStats:
		op.reply <- Stats{Rooms: len(h.rooms), Clients: len(h.clients)}
	}
}

func (h *Hub) join(c *Client, name string) {
	if prev, ok := h.clients[c]; ok && prev != name {
		h.removeFromRoom(c, prev)
	}
	h.clients[c] = name

	room, ok := h.rooms[name]
	if !ok {
		room = NewRoom(name)
		h.rooms[name] = room
	}
	room.AddClient(c)
	h.log.Info().Str("client_id", c.ID).Str("room", name).Int("members", room.Len()).Msg("client joined room")
}

func (h *Hub) leave(c *Client) {
	if name, ok := h.clients[c]; ok {
		h.removeFromRoom(c, name)
		delete(h.clients, c)
		h.log.Info().Str("client_id", c.ID).Str("room", name).Msg("client left room")
	}
	c.Close()
}

func (h *Hub) removeFromRoom(c *Client, name string) {
	room, ok := h.rooms[name]
	if !ok {
		return
	}
	room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, name)
	}
}
