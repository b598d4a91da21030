// Package server is the authoritative arena game engine: it owns the match
// registry, dispatches player commands into the movement and combat
// subsystems, and drives the multi-rate simulation loops that stream
// incremental state back to every connection.
package server

import (
	"context"
	"log"
	"sync"
	"time"

	"battle-arena/server/internal/account"
	"battle-arena/server/internal/ai"
	"battle-arena/server/internal/combat"
	"battle-arena/server/internal/content"
	"battle-arena/server/internal/game"
	"battle-arena/server/internal/room"
	"battle-arena/server/internal/session"
	"battle-arena/server/internal/wire"
	"battle-arena/server/logging"
	loglife "battle-arena/server/logging/lifecycle"
	lognet "battle-arena/server/logging/network"
	logsim "battle-arena/server/logging/simulation"
)

// matchState wraps one live match with the hub-side bookkeeping the loops
// need: broadcast diffing state, troop spawn cooldowns, and the empty-since
// timestamp that schedules teardown.
//
// world serializes every read and write of match entity and component state
// across the simulation, gold, and AI loops, the broadcast snapshot, and the
// connection goroutines dispatching player commands. It is never held across
// a network send. mu guards the hub-side bookkeeping only and nests inside
// world when both are needed.
type matchState struct {
	match *game.Match
	world sync.Mutex

	mapID string
	seats int

	mu           sync.Mutex
	emptySince   time.Time
	lastSentPos  map[string]game.Vec2
	lastSentGold map[int]int
	// troopReady maps "slot:troopType" to when the next spawn unlocks.
	troopReady map[string]time.Time
	// nextMineAt schedules the restock after a mine is destroyed. Only the
	// gold loop touches it, under world.
	nextMineAt time.Time
	gameOver   bool
}

// Hub is the process-wide engine facade. Transports hand it authenticated
// frames; the loops it runs advance every registered match.
type Hub struct {
	cfg      Config
	registry *session.Registry
	combat   *combat.Service
	troops   *ai.Controller
	content  content.Store
	accounts *account.Service
	seeder   *room.Seeder
	pub      logging.Publisher
	now      func() time.Time

	mu      sync.RWMutex
	matches map[string]*matchState
}

// NewHub wires the engine together. pub may be nil for silent operation.
func NewHub(cfg Config, store content.Store, accounts *account.Service, pub logging.Publisher) *Hub {
	cfg = cfg.withDefaults()
	if pub == nil {
		pub = logging.NopPublisher()
	}
	svc := combat.NewService(cfg.RespawnDelay)
	h := &Hub{
		cfg:      cfg,
		combat:   svc,
		troops:   ai.NewController(cfg.AI, svc),
		content:  store,
		accounts: accounts,
		seeder:   room.NewSeeder(store, cfg.CommandRateLimit, cfg.GoldPerTick),
		pub:      pub,
		now:      time.Now,
		matches:  make(map[string]*matchState),
	}
	h.registry = session.NewRegistry(h.markEmpty)
	return h
}

// Registry exposes the session registry to transports.
func (h *Hub) Registry() *session.Registry { return h.registry }

// DuplicateMatchError rejects seeding a match id twice.
type DuplicateMatchError struct {
	MatchID string
}

func (e *DuplicateMatchError) Error() string {
	return "server: match " + e.MatchID + " already running"
}

// StartMatch seeds a match from a matchmaking assignment. The assignment is
// consumed once; a duplicate match id is rejected.
func (h *Hub) StartMatch(a room.Assignment) error {
	m, err := h.seeder.Seed(a)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if _, exists := h.matches[a.MatchID]; exists {
		h.mu.Unlock()
		return &DuplicateMatchError{MatchID: a.MatchID}
	}
	h.matches[a.MatchID] = &matchState{
		match: m,
		mapID: a.MapID,
		seats: len(a.Seats),
		// A freshly seeded match has no connections yet; the grace
		// period covers the window until the first handshake.
		emptySince:   h.now(),
		lastSentPos:  make(map[string]game.Vec2),
		lastSentGold: make(map[int]int),
		troopReady:   make(map[string]time.Time),
	}
	h.mu.Unlock()

	loglife.MatchStarted(context.Background(), h.pub,
		logging.EntityRef{ID: a.MatchID, Kind: logging.EntityKindMatch},
		loglife.MatchStartedPayload{MapID: a.MapID, Players: len(a.Seats)}, nil)
	return nil
}

// MatchByID returns a running match.
func (h *Hub) MatchByID(id string) (*game.Match, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ms, ok := h.matches[id]
	if !ok {
		return nil, false
	}
	return ms.match, true
}

// MatchCount reports how many matches are live.
func (h *Hub) MatchCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches)
}

// MatchIDs lists the live match ids.
func (h *Hub) MatchIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.matches))
	for id := range h.matches {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) state(id string) (*matchState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ms, ok := h.matches[id]
	return ms, ok
}

// markEmpty is the registry's empty-match hook: it stamps the teardown
// clock. The sweep loop releases the match after the grace period.
func (h *Hub) markEmpty(matchID string) {
	ms, ok := h.state(matchID)
	if !ok {
		return
	}
	ms.mu.Lock()
	ms.emptySince = h.now()
	ms.mu.Unlock()
}

// Authenticate performs the handshake: verify the credential, find the
// caller's seat, and register the session. On success the caller receives
// its auth result plus the full initial state snapshot.
func (h *Hub) Authenticate(conn session.Conn, msg *wire.Authentication) (*wire.AuthResult, *wire.InitialState, error) {
	userID, err := h.accounts.Verify(msg.Token)
	if err != nil {
		lognet.AuthFailed(context.Background(), h.pub,
			logging.EntityRef{ID: conn.RemoteAddr(), Kind: logging.EntityKindSession},
			"invalid token", nil)
		return &wire.AuthResult{Status: wire.StatusAuthFailed, Reason: "invalid token"}, nil, wire.ErrAuthRequired
	}

	ms, ok := h.state(msg.MatchID)
	if !ok {
		return &wire.AuthResult{Status: wire.StatusUnknownMatch, Reason: "unknown match"}, nil, wire.ErrAuthRequired
	}

	seat := -1
	for _, slot := range ms.match.Slots() {
		if slot.UserID == userID {
			seat = slot.Number
			break
		}
	}
	if seat < 0 {
		return &wire.AuthResult{Status: wire.StatusUnknownMatch, Reason: "no seat in match"}, nil, wire.ErrAuthRequired
	}

	sess := &session.Session{Conn: conn, UserID: userID, MatchID: msg.MatchID, Slot: seat}
	if !h.registry.Register(sess) {
		return &wire.AuthResult{Status: wire.StatusSlotTaken, Reason: "slot occupied"}, nil, wire.ErrAuthRequired
	}

	// A reconnect inside the grace period keeps the match alive.
	ms.mu.Lock()
	if !ms.emptySince.IsZero() {
		ms.emptySince = time.Time{}
		logsim.TeardownCancelled(context.Background(), h.pub, ms.match.Tick(),
			logging.EntityRef{ID: msg.MatchID, Kind: logging.EntityKindMatch}, nil)
	}
	ms.mu.Unlock()

	loglife.PlayerJoined(context.Background(), h.pub, ms.match.Tick(),
		logging.EntityRef{ID: userID, Kind: logging.EntityKindSession},
		loglife.PlayerJoinedPayload{Slot: seat}, nil)

	result := &wire.AuthResult{Status: wire.StatusOK, UserID: userID, Slot: uint8(seat)}
	ms.world.Lock()
	snap := h.snapshot(ms.match)
	ms.world.Unlock()
	return result, snap, nil
}

// Disconnect tears down the session bound to a connection.
func (h *Hub) Disconnect(conn session.Conn, reason string) {
	sess := h.registry.Unregister(conn)
	if sess == nil {
		return
	}
	loglife.PlayerDisconnected(context.Background(), h.pub, 0,
		logging.EntityRef{ID: sess.UserID, Kind: logging.EntityKindSession},
		loglife.PlayerDisconnectedPayload{Reason: reason}, nil)
}

// HandleMessage dispatches one authenticated inbound frame. Validation
// failures are logged and ignored so client bugs never disturb simulation.
func (h *Hub) HandleMessage(conn session.Conn, msg wire.Message) {
	sess, ok := h.registry.ByConn(conn)
	if !ok {
		log.Printf("server: frame from unregistered connection %s", conn.RemoteAddr())
		return
	}
	ms, ok := h.state(sess.MatchID)
	if !ok {
		return
	}
	now := h.now()

	switch m := msg.(type) {
	case *wire.Ping:
		if err := conn.Send(&wire.Pong{ClientTime: m.ClientTime, ServerTime: now.UnixMilli()}); err != nil {
			h.Disconnect(conn, "write failed")
		}
	case *wire.PlayerReady:
		h.registry.SetReady(conn, m.Ready)
		h.broadcastLobby(sess.MatchID)
	case *wire.ChooseChampion:
		if _, err := h.content.Champion(m.ChampionID); err != nil {
			log.Printf("server: unknown champion %q from slot %d", m.ChampionID, sess.Slot)
			return
		}
		h.registry.SetChampion(conn, m.ChampionID)
		h.broadcastLobby(sess.MatchID)
	case *wire.Move:
		h.handleMove(ms, sess, m, now)
	case *wire.Attack:
		h.handleAttack(ms, sess, m, now)
	case *wire.CastSkill:
		h.handleCastSkill(ms, sess, m, now)
	case *wire.TroopSpawn:
		h.handleTroopSpawn(ms, sess, m, now)
	default:
		log.Printf("server: unhandled message %T from slot %d", msg, sess.Slot)
	}
}

// handleMove routes a manual move to the caller's champion. An admitted move
// clears any attack-follow state; a rate-limited move is dropped whole and
// leaves the follow behavior untouched.
func (h *Hub) handleMove(ms *matchState, sess *session.Session, m *wire.Move, now time.Time) {
	ms.world.Lock()
	defer ms.world.Unlock()
	champ, ok := ms.match.ChampionBySlot(sess.Slot)
	if !ok || !champ.Alive() {
		return
	}
	if ms.match.CommandMove(champ.ID, game.Vec2{X: m.X, Y: m.Y}, now) {
		h.combat.StopAttack(ms.match.ID, champ.ID)
	}
}

// handleAttack validates ownership before storing the attack intent.
func (h *Hub) handleAttack(ms *matchState, sess *session.Session, m *wire.Attack, now time.Time) {
	ms.world.Lock()
	defer ms.world.Unlock()
	attacker, ok := ms.match.EntityByID(m.AttackerID)
	if !ok || attacker.Slot != sess.Slot {
		log.Printf("server: slot %d does not own attacker %q", sess.Slot, m.AttackerID)
		return
	}
	h.combat.SetAttack(ms.match, m.AttackerID, m.TargetID, now)
}

func (h *Hub) handleCastSkill(ms *matchState, sess *session.Session, m *wire.CastSkill, now time.Time) {
	ms.world.Lock()
	defer ms.world.Unlock()
	champ, ok := ms.match.ChampionBySlot(sess.Slot)
	if !ok || !champ.Alive() {
		return
	}
	h.combat.CastSkill(ms.match, champ.ID, m.SkillID, m.TargetID, game.Vec2{X: m.X, Y: m.Y}, now)
}

// snapshot builds the full initial state for a fresh session. Callers hold
// the match's world lock.
func (h *Hub) snapshot(m *game.Match) *wire.InitialState {
	entities := m.Entities()
	out := &wire.InitialState{
		MatchID:  m.ID,
		Tick:     m.Tick(),
		Entities: make([]wire.EntitySnapshot, 0, len(entities)),
	}
	for _, e := range entities {
		// Unowned entities (gold mines) report slot 255.
		slot := uint8(255)
		if e.Slot >= 0 {
			slot = uint8(e.Slot)
		}
		snap := wire.EntitySnapshot{
			EntityID: e.ID,
			Kind:     uint8(e.Kind),
			Slot:     slot,
			X:        e.Pos.X,
			Y:        e.Pos.Y,
		}
		if e.Health != nil {
			snap.Health, snap.MaxHealth = e.Health.Snapshot()
		}
		out.Entities = append(out.Entities, snap)
	}
	return out
}

func (h *Hub) broadcastLobby(matchID string) {
	sessions := h.registry.MatchSessions(matchID)
	state := &wire.LobbyState{MatchID: matchID, Entries: make([]wire.LobbyEntry, 0, len(sessions))}
	for _, sess := range sessions {
		state.Entries = append(state.Entries, wire.LobbyEntry{
			Slot:       uint8(sess.Slot),
			UserID:     sess.UserID,
			ChampionID: sess.ChampionID,
			Ready:      sess.Ready,
		})
	}
	h.dropFailed(h.registry.Broadcast(matchID, state))
}

// dropFailed disconnects every connection whose write failed. Writes are
// best effort; a failure only ever costs that one connection.
func (h *Hub) dropFailed(failed []session.Conn) {
	for _, conn := range failed {
		h.Disconnect(conn, "write failed")
	}
}
