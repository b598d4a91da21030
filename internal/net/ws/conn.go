// Package ws serves the game protocol over websocket connections. Frames
// travel as binary websocket messages carrying one TLV frame each.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"battle-arena/server/internal/wire"
)

// Conn adapts a websocket connection to the session.Conn contract. Writes
// are serialized; a slow reader hits the write deadline and is dropped.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// Send frames and writes one message as a single binary websocket message.
func (c *Conn) Send(msg wire.Message) error {
	frame, err := wire.EncodeFrame(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.BinaryMessage, frame)
}

// Close shuts the underlying websocket. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}

// RemoteAddr reports the peer address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
