// Package tcp serves the game protocol over raw TCP connections. Frames
// travel back to back on the stream; the TLV header delimits them.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	server "battle-arena/server"
	"battle-arena/server/internal/wire"
	"battle-arena/server/logging"
	lognet "battle-arena/server/logging/network"
)

// Conn adapts a TCP connection to the session.Conn contract.
type Conn struct {
	raw          net.Conn
	enc          *wire.Encoder
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newConn(raw net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{raw: raw, enc: wire.NewEncoder(raw), writeTimeout: writeTimeout}
}

// Send frames and writes one message. Writes are serialized per connection.
func (c *Conn) Send(msg wire.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.enc.Encode(msg)
}

// Close shuts the socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.raw.Close()
}

// RemoteAddr reports the peer address.
func (c *Conn) RemoteAddr() string {
	return c.raw.RemoteAddr().String()
}

// ServerConfig tunes the TCP transport.
type ServerConfig struct {
	WriteTimeout time.Duration
	Publisher    logging.Publisher
}

// Server accepts TCP connections and runs the game protocol on each.
type Server struct {
	hub      *server.Hub
	registry *wire.Registry
	pub      logging.Publisher
	writeTO  time.Duration
}

// NewServer builds a TCP transport bound to the hub.
func NewServer(hub *server.Hub, cfg ServerConfig) *Server {
	writeTO := cfg.WriteTimeout
	if writeTO <= 0 {
		writeTO = 10 * time.Second
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Server{
		hub:      hub,
		registry: wire.NewRegistry(),
		pub:      pub,
		writeTO:  writeTO,
	}
}

// Serve accepts connections until the listener closes or ctx is cancelled.
// Each connection gets its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return err
		}
		go s.serve(newConn(raw, s.writeTO), raw)
	}
}

func (s *Server) serve(conn *Conn, raw net.Conn) {
	ref := logging.EntityRef{ID: conn.RemoteAddr(), Kind: logging.EntityKindSession}
	lognet.ConnectionOpened(context.Background(), s.pub, ref,
		lognet.ConnectionPayload{Transport: "tcp", RemoteAddr: conn.RemoteAddr()}, nil)

	gate := wire.NewGate()
	defer func() {
		s.hub.Disconnect(conn, "connection closed")
		conn.Close()
		lognet.ConnectionClosed(context.Background(), s.pub, ref,
			lognet.ConnectionPayload{Transport: "tcp", RemoteAddr: conn.RemoteAddr()}, nil)
	}()

	dec := wire.NewDecoder(raw, s.registry)
	for {
		msg, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				return
			}
			if errors.Is(err, wire.ErrUnknownType) {
				// The payload is already consumed; the stream stays aligned.
				lognet.ProtocolError(context.Background(), s.pub, ref,
					lognet.ProtocolErrorPayload{Reason: err.Error()}, nil)
				continue
			}
			// A malformed frame loses stream alignment. Drop the connection.
			lognet.ProtocolError(context.Background(), s.pub, ref,
				lognet.ProtocolErrorPayload{Reason: err.Error()}, nil)
			return
		}

		if err := gate.Admit(msg); err != nil {
			conn.Send(&wire.ErrorNotice{Code: uint16(wire.StatusAuthFailed), Text: "authenticate first"})
			continue
		}

		if auth, ok := msg.(*wire.Authentication); ok {
			if gate.Authorized() {
				continue
			}
			result, initial, err := s.hub.Authenticate(conn, auth)
			if sendErr := conn.Send(result); sendErr != nil {
				return
			}
			if err != nil {
				return
			}
			if err := conn.Send(initial); err != nil {
				return
			}
			gate.Authorize()
			continue
		}

		s.hub.HandleMessage(conn, msg)
	}
}
