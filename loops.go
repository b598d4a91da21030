package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"battle-arena/server/logging"
	logecon "battle-arena/server/logging/economy"
	loglife "battle-arena/server/logging/lifecycle"
	logsim "battle-arena/server/logging/simulation"
)

// Run drives the fixed-rate loops until ctx is cancelled: simulation
// (movement, combat, respawns), gold income, troop AI, broadcast diffing,
// and the empty-match cleanup sweep. Each loop iterates every live match
// independently; one match's failure never touches another.
func (h *Hub) Run(ctx context.Context) {
	var wg sync.WaitGroup
	loops := []struct {
		name     string
		interval time.Duration
		step     func(*matchState, time.Time)
	}{
		{"simulation", h.cfg.SimInterval, h.stepSimulation},
		{"gold", h.cfg.GoldInterval, h.stepGold},
		{"ai", h.cfg.AIInterval, h.stepAI},
		{"broadcast", h.cfg.BroadcastInterval, h.stepBroadcast},
	}
	for _, loop := range loops {
		wg.Add(1)
		go func(name string, interval time.Duration, step func(*matchState, time.Time)) {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					h.forEachMatch(name, step)
				}
			}
		}(loop.name, loop.interval, loop.step)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(h.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.sweep(h.now())
			}
		}
	}()

	wg.Wait()
}

// forEachMatch applies one loop step to every live match, isolating panics
// per match so a single bad tick cannot halt the loop or its neighbors.
func (h *Hub) forEachMatch(loop string, step func(*matchState, time.Time)) {
	h.mu.RLock()
	states := make([]*matchState, 0, len(h.matches))
	for _, ms := range h.matches {
		states = append(states, ms)
	}
	h.mu.RUnlock()

	now := h.now()
	for _, ms := range states {
		h.stepIsolated(loop, ms, step, now)
	}
}

func (h *Hub) stepIsolated(loop string, ms *matchState, step func(*matchState, time.Time), now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logsim.TickPanic(context.Background(), h.pub, ms.match.Tick(),
				logging.EntityRef{ID: ms.match.ID, Kind: logging.EntityKindMatch},
				logsim.TickPanicPayload{Loop: loop, Panic: fmt.Sprint(r)}, nil)
		}
	}()
	step(ms, now)
}

// stepSimulation advances one match by one combat tick. The whole tick runs
// under the match's world lock; the game-over notice goes out after it is
// released.
func (h *Hub) stepSimulation(ms *matchState, now time.Time) {
	ms.world.Lock()
	ms.match.AdvanceTick()
	ms.match.UpdatePositions(now)
	h.combat.ProcessAttacks(ms.match, now)
	h.combat.ProcessRespawns(ms.match, now)
	winner, over := h.checkVictory(ms)
	ms.world.Unlock()

	if over {
		loglife.MatchFinished(context.Background(), h.pub, ms.match.Tick(),
			logging.EntityRef{ID: ms.match.ID, Kind: logging.EntityKindMatch},
			loglife.MatchFinishedPayload{WinnerSlot: winner}, nil)
		h.dropFailed(h.registry.Broadcast(ms.match.ID, matchOverNotice(winner)))
	}
}

// stepGold credits each surviving slot's periodic income and restocks
// destroyed gold mines once their delay has passed.
func (h *Hub) stepGold(ms *matchState, now time.Time) {
	ms.world.Lock()
	for _, slot := range ms.match.Slots() {
		if slot.Eliminated() {
			continue
		}
		balance := slot.AddGold(h.cfg.GoldPerTick)
		logecon.GoldGranted(context.Background(), h.pub, ms.match.Tick(),
			logging.EntityRef{ID: ms.match.ID, Kind: logging.EntityKindMatch},
			logecon.GoldPayload{Slot: slot.Number, Amount: h.cfg.GoldPerTick, Balance: balance}, nil)
	}
	spawned := h.restockMines(ms, now)
	ms.world.Unlock()

	if spawned != nil {
		h.dropFailed(h.registry.Broadcast(ms.match.ID, spawned))
	}
}

// stepAI runs one troop decision pass.
func (h *Hub) stepAI(ms *matchState, now time.Time) {
	ms.world.Lock()
	defer ms.world.Unlock()
	h.troops.Tick(ms.match, now)
}

// checkVictory eliminates slots whose towers are all gone and, when one slot
// remains, ends the match and reports the winner. Callers hold the world
// lock and send the notice after releasing it.
func (h *Hub) checkVictory(ms *matchState) (winner int, over bool) {
	ms.mu.Lock()
	done := ms.gameOver
	ms.mu.Unlock()
	if done {
		return 0, false
	}

	var standing []int
	for _, slot := range ms.match.Slots() {
		if !slot.Eliminated() && slot.AliveTowers() == 0 {
			slot.Eliminate()
		}
		if !slot.Eliminated() {
			standing = append(standing, slot.Number)
		}
	}
	if len(standing) != 1 {
		return 0, false
	}

	winner = standing[0]
	if !ms.match.Finish(winner) {
		return 0, false
	}
	ms.mu.Lock()
	ms.gameOver = true
	ms.mu.Unlock()
	return winner, true
}

// sweep releases matches that have sat empty past the grace period. Each
// match is torn down at most once; a reconnect clears emptySince and
// cancels the pending teardown.
func (h *Hub) sweep(now time.Time) {
	h.mu.RLock()
	candidates := make(map[string]*matchState, len(h.matches))
	for id, ms := range h.matches {
		candidates[id] = ms
	}
	h.mu.RUnlock()

	for id, ms := range candidates {
		ms.mu.Lock()
		empty := ms.emptySince
		ms.mu.Unlock()
		if empty.IsZero() || now.Sub(empty) < h.cfg.EmptyMatchGrace {
			continue
		}
		h.teardown(id, ms, now.Sub(empty))
	}
}

// teardown releases every piece of state the match accumulated: hub entry,
// combat contexts, respawn queues, and queued events.
func (h *Hub) teardown(id string, ms *matchState, emptyFor time.Duration) {
	h.mu.Lock()
	if _, still := h.matches[id]; !still {
		h.mu.Unlock()
		return
	}
	delete(h.matches, id)
	h.mu.Unlock()

	h.combat.ReleaseMatch(id)
	logsim.MatchTeardown(context.Background(), h.pub, ms.match.Tick(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindMatch},
		logsim.TeardownPayload{EmptyForMillis: emptyFor.Milliseconds()}, nil)
}
