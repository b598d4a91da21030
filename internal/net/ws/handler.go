package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	server "battle-arena/server"
	"battle-arena/server/internal/wire"
	"battle-arena/server/logging"
	lognet "battle-arena/server/logging/network"
)

// HandlerConfig tunes the websocket transport.
type HandlerConfig struct {
	WriteTimeout time.Duration
	Publisher    logging.Publisher
}

// Handler upgrades HTTP requests and runs the game protocol over the
// resulting websocket connections.
type Handler struct {
	hub      *server.Hub
	registry *wire.Registry
	pub      logging.Publisher
	upgrader websocket.Upgrader
	writeTO  time.Duration
}

// NewHandler builds a websocket transport bound to the hub.
func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	writeTO := cfg.WriteTimeout
	if writeTO <= 0 {
		writeTO = 10 * time.Second
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Handler{
		hub:      hub,
		registry: wire.NewRegistry(),
		pub:      pub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		writeTO: writeTO,
	}
}

// Handle upgrades one request and serves its connection until it closes.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := newConn(sock, h.writeTO)
	h.serve(conn, sock)
}

func (h *Handler) serve(conn *Conn, sock *websocket.Conn) {
	ref := logging.EntityRef{ID: conn.RemoteAddr(), Kind: logging.EntityKindSession}
	lognet.ConnectionOpened(context.Background(), h.pub, ref,
		lognet.ConnectionPayload{Transport: "ws", RemoteAddr: conn.RemoteAddr()}, nil)

	gate := wire.NewGate()
	defer func() {
		h.hub.Disconnect(conn, "connection closed")
		conn.Close()
		lognet.ConnectionClosed(context.Background(), h.pub, ref,
			lognet.ConnectionPayload{Transport: "ws", RemoteAddr: conn.RemoteAddr()}, nil)
	}()

	for {
		kind, frame, err := sock.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		msg, err := wire.DecodeFrame(h.registry, frame)
		if err != nil {
			if errors.Is(err, wire.ErrUnknownType) {
				// Unknown types are forward compatibility, not an attack.
				lognet.ProtocolError(context.Background(), h.pub, ref,
					lognet.ProtocolErrorPayload{Reason: err.Error()}, nil)
				continue
			}
			lognet.ProtocolError(context.Background(), h.pub, ref,
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
			result, initial, err := h.hub.Authenticate(conn, auth)
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

		h.hub.HandleMessage(conn, msg)
	}
}
