package commhub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daikurogo/ipywidgets/tool"
)

var WriteTimeout = 5 * time.Second

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Hub holds the observer connections of one model and broadcasts sync frames to them.
// It satisfies widget.Syncer.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*client
}

// New creates a new comm hub.
func New() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]*client),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &client{conn: conn}
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Len reports the number of connected observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send writes one frame to a single registered connection.
func (h *Hub) Send(conn *websocket.Conn, frame []byte) error {
	h.mu.RLock()
	c, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection not registered")
	}
	return c.write(frame)
}

// Sync broadcasts frame as one binary message to every observer. Connections that fail are
// dropped; the errors are joined.
func (h *Hub) Sync(ctx context.Context, frame []byte) error {
	if frame == nil {
		return nil
	}
	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var errs []error
	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.write(frame); err != nil {
			tool.DefaultLogger.Warnf("[CommHub] dropping observer %s: %v", c.conn.RemoteAddr(), err)
			h.Unregister(c.conn)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
