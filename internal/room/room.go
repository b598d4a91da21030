// Package room seeds a match from a matchmaking assignment: the one-shot
// (match id, slot, user, champion) mapping consumed at match start.
package room

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"battle-arena/server/internal/content"
	"battle-arena/server/internal/game"
)

// Fallbacks for maps whose content predates destructible mines.
const (
	defaultMineHealth = 150
	defaultMineGold   = 100
)

// Seat assigns one player to a slot.
type Seat struct {
	Slot       int    `json:"slot"`
	UserID     string `json:"userId"`
	ChampionID string `json:"championId"`
}

// Assignment is the matchmaking output: which users sit where on which map.
type Assignment struct {
	MatchID string `json:"matchId"`
	MapID   string `json:"mapId"`
	Seats   []Seat `json:"seats"`
}

// Validate checks the assignment is internally consistent.
func (a Assignment) Validate() error {
	if a.MatchID == "" {
		return fmt.Errorf("room: assignment missing match id")
	}
	if len(a.Seats) == 0 {
		return fmt.Errorf("room: assignment has no seats")
	}
	seen := make(map[int]bool, len(a.Seats))
	users := make(map[string]bool, len(a.Seats))
	for _, seat := range a.Seats {
		if seat.Slot < 0 || seat.Slot >= len(a.Seats) {
			return fmt.Errorf("room: seat slot %d out of range", seat.Slot)
		}
		if seen[seat.Slot] {
			return fmt.Errorf("room: duplicate slot %d", seat.Slot)
		}
		if seat.UserID == "" || users[seat.UserID] {
			return fmt.Errorf("room: invalid or duplicate user for slot %d", seat.Slot)
		}
		seen[seat.Slot] = true
		users[seat.UserID] = true
	}
	return nil
}

// Seeder turns assignments into live match state using the content store.
type Seeder struct {
	content     content.Store
	rateLimit   time.Duration
	goldPerTick int
}

// NewSeeder builds a seeder. goldPerTick is each slot's periodic mine income.
func NewSeeder(store content.Store, rateLimit time.Duration, goldPerTick int) *Seeder {
	return &Seeder{content: store, rateLimit: rateLimit, goldPerTick: goldPerTick}
}

// GoldPerTick returns the per-slot periodic income.
func (s *Seeder) GoldPerTick() int { return s.goldPerTick }

// Seed builds the full match: slots, champions at their spawn points,
// towers, and gold mines. The assignment is consumed exactly once.
func (s *Seeder) Seed(a Assignment) (*game.Match, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	mapDef, err := s.content.Map(a.MapID, len(a.Seats))
	if err != nil {
		return nil, err
	}
	if len(mapDef.Slots) < len(a.Seats) {
		return nil, fmt.Errorf("room: map %s supports %d players, need %d", a.MapID, len(mapDef.Slots), len(a.Seats))
	}
	towerDef, err := s.content.Tower()
	if err != nil {
		return nil, err
	}

	m := game.NewMatch(a.MatchID, game.MapDef{
		Rows:     mapDef.Rows,
		Cols:     mapDef.Cols,
		OriginX:  mapDef.OriginX,
		OriginY:  mapDef.OriginY,
		CellSize: mapDef.CellSize,
	}, mapDef.BuildGrid(), s.rateLimit)

	for _, seat := range a.Seats {
		champDef, err := s.content.Champion(seat.ChampionID)
		if err != nil {
			return nil, err
		}
		layout := mapDef.Slots[seat.Slot]
		slot := game.NewSlot(seat.Slot, seat.UserID)
		slot.ChampionID = seat.ChampionID

		spawn := game.Vec2{X: layout.Spawn.X, Y: layout.Spawn.Y}
		champion := &game.Entity{
			ID:       fmt.Sprintf("champ-%d", seat.Slot),
			Kind:     game.KindChampion,
			Slot:     seat.Slot,
			Pos:      spawn,
			SpawnPos: spawn,
			Health:   game.NewHealth(champDef.MaxHealth),
			Attack: &game.AttackComponent{
				BaseDamage: champDef.AttackDamage,
				Cooldown:   time.Duration(champDef.AttackCooldownMS) * time.Millisecond,
				Range:      champDef.AttackRange,
			},
			Movement:  &game.MovementComponent{Speed: champDef.MoveSpeed},
			Attribute: &game.AttributeComponent{Defense: champDef.Defense},
			Skill: &game.SkillComponent{
				Power:    champDef.SkillPower,
				Cooldown: time.Duration(champDef.SkillCooldownMS) * time.Millisecond,
				Radius:   champDef.SkillRadius,
			},
		}
		slot.Champion = champion
		m.AddEntity(champion)

		for i, at := range layout.Towers {
			tower := &game.Entity{
				ID:     fmt.Sprintf("tower-%d-%d", seat.Slot, i),
				Kind:   game.KindTower,
				Slot:   seat.Slot,
				Pos:    game.Vec2{X: at.X, Y: at.Y},
				Health: game.NewHealth(towerDef.MaxHealth),
				Attack: &game.AttackComponent{
					BaseDamage: towerDef.AttackDamage,
					Cooldown:   time.Duration(towerDef.AttackCooldownMS) * time.Millisecond,
					Range:      towerDef.AttackRange,
				},
				Attribute: &game.AttributeComponent{Defense: towerDef.Defense},
			}
			slot.Towers = append(slot.Towers, tower)
			m.AddEntity(tower)
		}
		m.AddSlot(slot)
	}

	for _, at := range mapDef.Mines {
		s.SpawnMine(m, game.Vec2{X: at.X, Y: at.Y}, mapDef.MineHealth, mapDef.MineGold)
	}
	return m, nil
}

// SpawnMine places one destructible gold mine. Whoever lands the killing
// blow collects the bounty.
func (s *Seeder) SpawnMine(m *game.Match, at game.Vec2, health float64, bounty int) *game.Entity {
	if health <= 0 {
		health = defaultMineHealth
	}
	if bounty <= 0 {
		bounty = defaultMineGold
	}
	mine := &game.Entity{
		ID:   "mine-" + uuid.NewString(),
		Kind: game.KindGoldMine,
		// Mines belong to no seat; every slot may harvest them.
		Slot:   -1,
		Pos:    at,
		Bounty: bounty,
		Health: game.NewHealth(health),
	}
	m.AddEntity(mine)
	return mine
}

// SpawnTroop materializes one purchased troop near the owner's champion.
func (s *Seeder) SpawnTroop(m *game.Match, slotNumber int, def content.TroopDef, at game.Vec2) (*game.Entity, error) {
	slot, ok := m.SlotByNumber(slotNumber)
	if !ok {
		return nil, fmt.Errorf("room: no slot %d in match %s", slotNumber, m.ID)
	}
	role := game.RoleMelee
	switch def.Role {
	case "ranged":
		role = game.RoleRanged
	case "healer":
		role = game.RoleHealer
	}
	troop := &game.Entity{
		ID:       "troop-" + uuid.NewString(),
		Kind:     game.KindTroop,
		Slot:     slotNumber,
		Pos:      at,
		SpawnPos: at,
		Role:     role,
		Health:   game.NewHealth(def.MaxHealth),
		Attack: &game.AttackComponent{
			BaseDamage: def.AttackDamage,
			Cooldown:   time.Duration(def.AttackCooldownMS) * time.Millisecond,
			Range:      def.AttackRange,
		},
		Movement:  &game.MovementComponent{Speed: def.MoveSpeed},
		Attribute: &game.AttributeComponent{Defense: def.Defense},
		AI:        &game.TroopAIState{},
	}
	m.AddEntity(troop)
	slot.Troops[troop.ID] = troop
	return troop, nil
}
