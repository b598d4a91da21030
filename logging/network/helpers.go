package network

import (
	"context"

	"battle-arena/server/logging"
)

const (
	// EventConnectionOpened is emitted when a transport accepts a connection.
	EventConnectionOpened logging.EventType = "network.connection_opened"
	// EventConnectionClosed is emitted when a connection goes away.
	EventConnectionClosed logging.EventType = "network.connection_closed"
	// EventProtocolError is emitted on a malformed or unknown frame.
	EventProtocolError logging.EventType = "network.protocol_error"
	// EventAuthFailed is emitted when a handshake credential is rejected.
	EventAuthFailed logging.EventType = "network.auth_failed"
)

// ConnectionPayload captures transport details.
type ConnectionPayload struct {
	Transport  string `json:"transport"`
	RemoteAddr string `json:"remoteAddr"`
	Reason     string `json:"reason,omitempty"`
}

// ProtocolErrorPayload captures what was wrong with an inbound frame.
type ProtocolErrorPayload struct {
	WireType uint16 `json:"wireType"`
	Reason   string `json:"reason"`
}

// ConnectionOpened publishes a connection accept event.
func ConnectionOpened(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ConnectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventConnectionOpened,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ConnectionClosed publishes a connection teardown event.
func ConnectionClosed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ConnectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventConnectionClosed,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ProtocolError publishes a warning for a malformed or unknown frame.
func ProtocolError(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload ProtocolErrorPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventProtocolError,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// AuthFailed publishes a rejected handshake.
func AuthFailed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, reason string, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAuthFailed,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  ConnectionPayload{Reason: reason},
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
