package lifecycle

import (
	"context"

	"battle-arena/server/logging"
)

const (
	// EventMatchStarted is emitted when a match is seeded and begins ticking.
	EventMatchStarted logging.EventType = "lifecycle.match_started"
	// EventPlayerJoined is emitted when a player's handshake completes.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a player's connection goes away.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventMatchFinished is emitted when a winner is decided.
	EventMatchFinished logging.EventType = "lifecycle.match_finished"
)

// MatchStartedPayload captures the seeded match shape.
type MatchStartedPayload struct {
	MapID   string `json:"mapId"`
	Players int    `json:"players"`
}

// PlayerJoinedPayload captures the seat a player took.
type PlayerJoinedPayload struct {
	Slot       int    `json:"slot"`
	ChampionID string `json:"championId,omitempty"`
}

// PlayerDisconnectedPayload captures the reason a player left.
type PlayerDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// MatchFinishedPayload records the outcome.
type MatchFinishedPayload struct {
	WinnerSlot int `json:"winnerSlot"`
}

// MatchStarted publishes a match start event.
func MatchStarted(ctx context.Context, pub logging.Publisher, match logging.EntityRef, payload MatchStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMatchStarted,
		Actor:    match,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PlayerDisconnected publishes a player departure event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerDisconnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerDisconnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// MatchFinished publishes the match outcome.
func MatchFinished(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, payload MatchFinishedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMatchFinished,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
