package simulation

import (
	"context"

	"battle-arena/server/logging"
)

const (
	// EventTickPanic is emitted when one match's tick body panics and is
	// recovered, isolating the failure from other matches.
	EventTickPanic logging.EventType = "simulation.tick_panic"
	// EventMatchTeardown is emitted when an empty match is released after
	// its grace period.
	EventMatchTeardown logging.EventType = "simulation.match_teardown"
	// EventTeardownCancelled is emitted when a reconnect arrives inside the
	// grace period and keeps the match alive.
	EventTeardownCancelled logging.EventType = "simulation.teardown_cancelled"
)

// TickPanicPayload captures the recovered panic.
type TickPanicPayload struct {
	Loop  string `json:"loop"`
	Panic string `json:"panic"`
}

// TeardownPayload captures how long the match sat empty.
type TeardownPayload struct {
	EmptyForMillis int64 `json:"emptyForMillis"`
}

// TickPanic publishes an error event for a recovered per-match panic.
func TickPanic(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, payload TickPanicPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTickPanic,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityError,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// MatchTeardown publishes the final release of an empty match.
func MatchTeardown(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, payload TeardownPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMatchTeardown,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TeardownCancelled publishes a reconnect that saved an empty match.
func TeardownCancelled(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTeardownCancelled,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
