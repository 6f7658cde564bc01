package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/convoyapp/convoy/internal/core"
)

// wsConn adapts a gorilla connection to core.SignalConnection. Frames
// go through a buffered channel drained by the write pump; a full
// buffer means backpressure and the frame is dropped by the caller.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan core.Frame, 32),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
