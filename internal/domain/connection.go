package domain

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents one live transport session. Outbound events go
// through a buffered channel drained by a writer pump; a slow consumer
// loses events rather than blocking the coordinator.
type Connection struct {
	ID     string
	Socket *websocket.Conn

	mu     sync.Mutex
	events chan Event
	closed bool
}

func NewConnection(socket *websocket.Conn) *Connection {
	return &Connection{
		ID:     uuid.New().String(),
		Socket: socket,
		events: make(chan Event, 32),
	}
}

// Events exposes the outbound queue for the writer pump.
func (c *Connection) Events() <-chan Event {
	return c.events
}

func (c *Connection) EnqueueEvent(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.events <- event:
	default:
	}
}

// Close stops the outbound queue and the underlying socket. Safe to call
// more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.events)
	c.mu.Unlock()

	if c.Socket != nil {
		c.Socket.Close()
	}
}
