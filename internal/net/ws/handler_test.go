package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	server "battle-arena/server"
	"battle-arena/server/internal/account"
	"battle-arena/server/internal/content"
	"battle-arena/server/internal/room"
	"battle-arena/server/internal/wire"
)

func newTestEndpoint(t *testing.T) *httptest.Server {
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
	handler := NewHandler(hub, HandlerConfig{})
	ts := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(ts.Close)
	return ts
}

func dialTest(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg wire.Message) {
	t.Helper()
	frame, err := wire.EncodeFrame(msg)
	if err != nil {
		t.Fatalf("encode %T: %v", msg, err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write %T: %v", msg, err)
	}
}

func recv(t *testing.T, conn *websocket.Conn, registry *wire.Registry) wire.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, err := wire.DecodeFrame(registry, frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func serverRegistry() *wire.Registry {
	registry := wire.NewRegistry()
	wire.RegisterServerMessages(registry)
	return registry
}

func TestHandshakeOverWebsocket(t *testing.T) {
	ts := newTestEndpoint(t)
	conn := dialTest(t, ts)
	registry := serverRegistry()

	send(t, conn, &wire.Authentication{Token: "alice:pw", MatchID: "m1"})
	result, ok := recv(t, conn, registry).(*wire.AuthResult)
	if !ok || result.Status != wire.StatusOK {
		t.Fatalf("expected successful auth, got %+v", result)
	}
	initial, ok := recv(t, conn, registry).(*wire.InitialState)
	if !ok || initial.MatchID != "m1" || len(initial.Entities) == 0 {
		t.Fatalf("expected populated initial state, got %+v", initial)
	}

	send(t, conn, &wire.Ping{ClientTime: 11})
	pong, ok := recv(t, conn, registry).(*wire.Pong)
	if !ok || pong.ClientTime != 11 {
		t.Fatalf("expected pong, got %+v", pong)
	}
}

func TestPreAuthFrameDrawsNotice(t *testing.T) {
	ts := newTestEndpoint(t)
	conn := dialTest(t, ts)
	registry := serverRegistry()

	send(t, conn, &wire.Move{X: 1, Y: 1})
	notice, ok := recv(t, conn, registry).(*wire.ErrorNotice)
	if !ok || notice.Code != uint16(wire.StatusAuthFailed) {
		t.Fatalf("pre-auth frame should draw an error notice, got %T", notice)
	}

	send(t, conn, &wire.Authentication{Token: "alice:pw", MatchID: "m1"})
	result, ok := recv(t, conn, registry).(*wire.AuthResult)
	if !ok || result.Status != wire.StatusOK {
		t.Fatalf("connection should survive the refusal, got %+v", result)
	}
}

func TestRejectedCredentialClosesSocket(t *testing.T) {
	ts := newTestEndpoint(t)
	conn := dialTest(t, ts)
	registry := serverRegistry()

	send(t, conn, &wire.Authentication{Token: "alice:wrong", MatchID: "m1"})
	result, ok := recv(t, conn, registry).(*wire.AuthResult)
	if !ok || result.Status != wire.StatusAuthFailed {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("socket should close after a rejected credential")
	}
}
