package server

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"battle-arena/server/internal/game"
	"battle-arena/server/internal/nav"
	"battle-arena/server/internal/session"
	"battle-arena/server/internal/wire"
	"battle-arena/server/logging"
	logecon "battle-arena/server/logging/economy"
)

// handleTroopSpawn runs the purchase path: spawn cooldown gate, gold debit,
// entity creation, and the spawn/cooldown/gold notices.
func (h *Hub) handleTroopSpawn(ms *matchState, sess *session.Session, m *wire.TroopSpawn, now time.Time) {
	def, err := h.content.Troop(m.TroopType)
	if err != nil {
		log.Printf("server: unknown troop type %q from slot %d", m.TroopType, sess.Slot)
		return
	}

	key := fmt.Sprintf("%d:%s", sess.Slot, m.TroopType)
	ms.mu.Lock()
	ready := ms.troopReady[key]
	ms.mu.Unlock()
	if now.Before(ready) {
		h.registry.Unicast(sess.MatchID, sess.Slot, &wire.TroopCooldown{
			Slot:        uint8(sess.Slot),
			TroopType:   m.TroopType,
			ReadyAtUnix: ready.Unix(),
		})
		return
	}

	ms.world.Lock()
	slot, ok := ms.match.SlotByNumber(sess.Slot)
	if !ok {
		ms.world.Unlock()
		return
	}
	if !slot.SpendGold(def.Cost) {
		ms.world.Unlock()
		logecon.GoldSpendFailed(context.Background(), h.pub, ms.match.Tick(),
			logging.EntityRef{ID: ms.match.ID, Kind: logging.EntityKindMatch},
			logecon.GoldPayload{Slot: sess.Slot, Amount: def.Cost, Balance: slot.Gold()}, nil)
		return
	}

	at := h.spawnPoint(ms.match, game.Vec2{X: m.X, Y: m.Y})
	troop, err := h.seeder.SpawnTroop(ms.match, sess.Slot, def, at)
	if err != nil {
		// Refund: the purchase never materialized.
		slot.AddGold(def.Cost)
		ms.world.Unlock()
		log.Printf("server: troop spawn failed in match %s: %v", ms.match.ID, err)
		return
	}
	balance := slot.Gold()
	ms.world.Unlock()

	nextReady := now.Add(time.Duration(def.SpawnCooldownMS) * time.Millisecond)
	ms.mu.Lock()
	ms.troopReady[key] = nextReady
	ms.mu.Unlock()

	logecon.TroopPurchased(context.Background(), h.pub, ms.match.Tick(),
		logging.EntityRef{ID: ms.match.ID, Kind: logging.EntityKindMatch},
		logecon.TroopPurchasePayload{
			Slot:      sess.Slot,
			TroopType: m.TroopType,
			Cost:      def.Cost,
			Balance:   balance,
		}, nil)

	h.dropFailed(h.registry.Broadcast(sess.MatchID, &wire.TroopSpawned{
		EntityID:  troop.ID,
		TroopType: m.TroopType,
		Slot:      uint8(sess.Slot),
		X:         at.X,
		Y:         at.Y,
	}))
	h.registry.Unicast(sess.MatchID, sess.Slot, &wire.TroopCooldown{
		Slot:        uint8(sess.Slot),
		TroopType:   m.TroopType,
		ReadyAtUnix: nextReady.Unix(),
	})
	h.registry.Unicast(sess.MatchID, sess.Slot, &wire.GoldUpdate{
		Slot: uint8(sess.Slot),
		Gold: int64(balance),
	})
}

// spawnPoint snaps a requested spawn position onto the nearest walkable
// cell's center.
func (h *Hub) spawnPoint(m *game.Match, requested game.Vec2) game.Vec2 {
	cell := m.ToGridCell(requested)
	if m.Grid().Walkable(cell) {
		return requested
	}
	if substitute, ok := m.Grid().ClosestWalkable(cell); ok {
		return m.ToPosition(substitute)
	}
	return requested
}

// restockMines keeps the arena stocked back up to the map's configured mine
// count: one replacement per delay window, at a random walkable cell.
// Callers hold the world lock and broadcast the returned notice after
// releasing it.
func (h *Hub) restockMines(ms *matchState, now time.Time) *wire.MineSpawned {
	mapDef, err := h.content.Map(ms.mapID, ms.seats)
	if err != nil || len(mapDef.Mines) == 0 {
		return nil
	}

	count := 0
	for _, e := range ms.match.Entities() {
		if e.Kind == game.KindGoldMine {
			count++
		}
	}
	if count >= len(mapDef.Mines) {
		ms.nextMineAt = time.Time{}
		return nil
	}
	if ms.nextMineAt.IsZero() {
		ms.nextMineAt = now.Add(h.cfg.MineRespawnDelay)
		return nil
	}
	if now.Before(ms.nextMineAt) {
		return nil
	}

	at, ok := randomWalkable(ms.match)
	if !ok {
		return nil
	}
	mine := h.seeder.SpawnMine(ms.match, at, mapDef.MineHealth, mapDef.MineGold)
	ms.nextMineAt = time.Time{}
	return &wire.MineSpawned{
		EntityID: mine.ID,
		X:        at.X,
		Y:        at.Y,
		Health:   mine.Health.Max(),
		Gold:     int64(mine.Bounty),
	}
}

// randomWalkable samples grid cells until it hits a walkable one. A fully
// blocked map gives up after a bounded number of tries.
func randomWalkable(m *game.Match) (game.Vec2, bool) {
	grid := m.Grid()
	for i := 0; i < 32; i++ {
		cell := nav.Cell{Row: rand.Intn(grid.Rows()), Col: rand.Intn(grid.Cols())}
		if grid.Walkable(cell) {
			return m.ToPosition(cell), true
		}
	}
	return game.Vec2{}, false
}
