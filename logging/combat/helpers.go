package combat

import (
	"context"

	"battle-arena/server/logging"
)

const (
	// EventDamage is emitted when an attack or skill deals damage.
	EventDamage logging.EventType = "combat.damage"
	// EventDefeat is emitted when an entity is killed.
	EventDefeat logging.EventType = "combat.defeat"
	// EventRespawn is emitted when a champion returns after its respawn delay.
	EventRespawn logging.EventType = "combat.respawn"
)

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	SkillID      string  `json:"skillId,omitempty"`
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
}

// DefeatPayload describes the fatal blow.
type DefeatPayload struct {
	SkillID string `json:"skillId,omitempty"`
}

// RespawnPayload records where the champion came back.
type RespawnPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Defeat publishes a combat defeat event for the eliminated entity.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DefeatPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Respawn publishes a champion respawn event.
func Respawn(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RespawnPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRespawn,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
