package server

import (
	"context"
	"time"

	"battle-arena/server/internal/combat"
	"battle-arena/server/internal/game"
	"battle-arena/server/internal/wire"
	"battle-arena/server/logging"
	logcombat "battle-arena/server/logging/combat"
)

// positionEpsilon is the movement threshold below which a position is
// considered unchanged and excluded from the diff.
const positionEpsilon = 1e-6

// stepBroadcast emits the minimal update set for one match: positions that
// moved since the last pass, the combat events queued since then, and gold
// balances that changed.
func (h *Hub) stepBroadcast(ms *matchState, now time.Time) {
	h.broadcastPositions(ms)
	h.broadcastCombatEvents(ms)
	h.broadcastGold(ms)
}

func (h *Hub) broadcastPositions(ms *matchState) {
	// The world lock keeps position reads consistent with the loops that
	// move entities; the send happens after both locks are released.
	ms.world.Lock()
	entities := ms.match.Entities()
	tick := ms.match.Tick()

	ms.mu.Lock()
	update := &wire.PositionUpdate{Tick: tick}
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		seen[e.ID] = struct{}{}
		last, sent := ms.lastSentPos[e.ID]
		if sent && game.Distance(last, e.Pos) < positionEpsilon {
			continue
		}
		ms.lastSentPos[e.ID] = e.Pos
		update.Entries = append(update.Entries, wire.PositionEntry{
			EntityID: e.ID,
			X:        e.Pos.X,
			Y:        e.Pos.Y,
		})
	}
	// Forget entities that left the match so their ids can never leak
	// stale diff state.
	for id := range ms.lastSentPos {
		if _, ok := seen[id]; !ok {
			delete(ms.lastSentPos, id)
		}
	}
	ms.mu.Unlock()
	ms.world.Unlock()

	if len(update.Entries) == 0 {
		return
	}
	h.dropFailed(h.registry.Broadcast(ms.match.ID, update))
}

func (h *Hub) broadcastCombatEvents(ms *matchState) {
	events := h.combat.Drain(ms.match.ID)
	tick := ms.match.Tick()
	for _, ev := range events {
		var msg wire.Message
		switch ev.Kind {
		case combat.EventAttack:
			msg = &wire.AttackAnimation{AttackerID: ev.AttackerID, TargetID: ev.EntityID}
		case combat.EventHealth:
			msg = &wire.HealthUpdate{EntityID: ev.EntityID, Health: ev.Health, MaxHealth: ev.MaxHealth}
			if ev.Damage > 0 {
				logcombat.Damage(context.Background(), h.pub, tick,
					logging.EntityRef{ID: ev.AttackerID}, logging.EntityRef{ID: ev.EntityID},
					logcombat.DamagePayload{SkillID: ev.SkillID, Amount: ev.Damage, TargetHealth: ev.Health}, nil)
			}
		case combat.EventDeath:
			msg = &wire.EntityDeath{EntityID: ev.EntityID, KillerID: ev.AttackerID}
			logcombat.Defeat(context.Background(), h.pub, tick,
				logging.EntityRef{ID: ev.AttackerID}, logging.EntityRef{ID: ev.EntityID},
				logcombat.DefeatPayload{SkillID: ev.SkillID}, nil)
		case combat.EventRespawn:
			msg = &wire.Respawn{EntityID: ev.EntityID, X: ev.X, Y: ev.Y, Health: ev.Health}
			logcombat.Respawn(context.Background(), h.pub, tick,
				logging.EntityRef{ID: ev.EntityID},
				logcombat.RespawnPayload{X: ev.X, Y: ev.Y}, nil)
		default:
			continue
		}
		h.dropFailed(h.registry.Broadcast(ms.match.ID, msg))
	}
}

func (h *Hub) broadcastGold(ms *matchState) {
	for _, slot := range ms.match.Slots() {
		gold := slot.Gold()
		ms.mu.Lock()
		last, sent := ms.lastSentGold[slot.Number]
		changed := !sent || last != gold
		if changed {
			ms.lastSentGold[slot.Number] = gold
		}
		ms.mu.Unlock()
		if !changed {
			continue
		}
		h.registry.Unicast(ms.match.ID, slot.Number, &wire.GoldUpdate{
			Slot: uint8(slot.Number),
			Gold: int64(gold),
		})
	}
}

func matchOverNotice(winner int) *wire.GameOver {
	return &wire.GameOver{WinnerSlot: uint8(winner)}
}
