package tcp

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	server "battle-arena/server"
	"battle-arena/server/internal/account"
	"battle-arena/server/internal/content"
	"battle-arena/server/internal/room"
	"battle-arena/server/internal/wire"
)

type client struct {
	conn net.Conn
	enc  *wire.Encoder
	dec  *wire.Decoder
}

func newClient(conn net.Conn) *client {
	registry := wire.NewRegistry()
	wire.RegisterServerMessages(registry)
	return &client{
		conn: conn,
		enc:  wire.NewEncoder(conn),
		dec:  wire.NewDecoder(conn, registry),
	}
}

func (c *client) send(t *testing.T, msg wire.Message) {
	t.Helper()
	if err := c.enc.Encode(msg); err != nil {
		t.Fatalf("send %T: %v", msg, err)
	}
}

func (c *client) recv(t *testing.T) wire.Message {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := c.dec.Next()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	return msg
}

func newTestServer(t *testing.T) (*Server, *server.Hub) {
	t.Helper()
	accounts := account.NewService(false)
	if err := accounts.RegisterUser("alice", "pw"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := accounts.RegisterUser("bob", "pw"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	hub := server.NewHub(server.DefaultConfig(), content.DefaultStore(), accounts, nil)
	err := hub.StartMatch(room.Assignment{
		MatchID: "m1",
		MapID:   "arena",
		Seats: []room.Seat{
			{Slot: 0, UserID: "alice", ChampionID: "blade-master"},
			{Slot: 1, UserID: "bob", ChampionID: "storm-caller"},
		},
	})
	if err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	return NewServer(hub, ServerConfig{}), hub
}

func dial(t *testing.T, srv *Server) *client {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	go srv.serve(newConn(serverSide, 2*time.Second), serverSide)
	t.Cleanup(func() { clientSide.Close() })
	return newClient(clientSide)
}

func TestHandshakeDeliversInitialState(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv)

	c.send(t, &wire.Authentication{Token: "alice:pw", MatchID: "m1"})
	result, ok := c.recv(t).(*wire.AuthResult)
	if !ok || result.Status != wire.StatusOK {
		t.Fatalf("expected successful auth result, got %+v", result)
	}
	initial, ok := c.recv(t).(*wire.InitialState)
	if !ok || initial.MatchID != "m1" || len(initial.Entities) == 0 {
		t.Fatalf("expected populated initial state, got %+v", initial)
	}
}

func TestFramesBeforeAuthAreRefused(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv)

	c.send(t, &wire.Move{X: 1, Y: 1})
	notice, ok := c.recv(t).(*wire.ErrorNotice)
	if !ok || notice.Code != uint16(wire.StatusAuthFailed) {
		t.Fatalf("pre-auth frame should draw an error notice, got %T", notice)
	}

	// The connection survives and the handshake still works.
	c.send(t, &wire.Authentication{Token: "alice:pw", MatchID: "m1"})
	result, ok := c.recv(t).(*wire.AuthResult)
	if !ok || result.Status != wire.StatusOK {
		t.Fatalf("handshake after refusal should succeed, got %+v", result)
	}
}

func TestBadCredentialClosesConnection(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv)

	c.send(t, &wire.Authentication{Token: "alice:nope", MatchID: "m1"})
	result, ok := c.recv(t).(*wire.AuthResult)
	if !ok || result.Status != wire.StatusAuthFailed {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.dec.Next(); err == nil {
		t.Fatalf("server should close after a rejected credential")
	}
}

func TestUnknownTypeIsSkipped(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv)

	c.send(t, &wire.Authentication{Token: "alice:pw", MatchID: "m1"})
	c.recv(t) // auth result
	c.recv(t) // initial state

	// A frame with an unregistered type code must be consumed in place.
	frame := make([]byte, wire.HeaderSize+3)
	binary.BigEndian.PutUint16(frame[0:2], 9999)
	binary.BigEndian.PutUint32(frame[2:6], 3)
	if _, err := c.conn.Write(frame); err != nil {
		t.Fatalf("write unknown frame: %v", err)
	}

	c.send(t, &wire.Ping{ClientTime: 42})
	pong, ok := c.recv(t).(*wire.Pong)
	if !ok || pong.ClientTime != 42 {
		t.Fatalf("stream should stay aligned past an unknown type, got %T", pong)
	}
}

func TestPingPongOverTCP(t *testing.T) {
	srv, _ := newTestServer(t)
	c := dial(t, srv)

	c.send(t, &wire.Authentication{Token: "bob:pw", MatchID: "m1"})
	c.recv(t)
	c.recv(t)

	c.send(t, &wire.Ping{ClientTime: 7})
	pong, ok := c.recv(t).(*wire.Pong)
	if !ok || pong.ClientTime != 7 {
		t.Fatalf("expected pong echoing client time, got %+v", pong)
	}
}
