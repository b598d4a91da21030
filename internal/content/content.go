// Package content serves the immutable game definitions: champion, troop,
// and tower stat blocks plus map geometry. Definitions load once and are
// cached for the process lifetime.
package content

import (
	"fmt"

	"battle-arena/server/internal/nav"
)

// ChampionDef is the stat block for a playable champion.
type ChampionDef struct {
	ID               string  `json:"id" jsonschema:"minLength=1"`
	Name             string  `json:"name"`
	MaxHealth        float64 `json:"maxHealth" jsonschema:"minimum=1"`
	AttackDamage     float64 `json:"attackDamage"`
	AttackCooldownMS int64   `json:"attackCooldownMs" jsonschema:"minimum=1"`
	AttackRange      float64 `json:"attackRange"`
	MoveSpeed        float64 `json:"moveSpeed"`
	Defense          float64 `json:"defense"`
	SkillID          string  `json:"skillId"`
	SkillPower       float64 `json:"skillPower"`
	SkillCooldownMS  int64   `json:"skillCooldownMs"`
	// SkillRadius is the area-of-effect span when the skill is cast at a
	// point instead of an entity.
	SkillRadius float64 `json:"skillRadius,omitempty"`
}

// TroopDef is the stat block for a purchasable troop.
type TroopDef struct {
	Type             string  `json:"type" jsonschema:"minLength=1"`
	Role             string  `json:"role" jsonschema:"enum=melee,enum=ranged,enum=healer"`
	MaxHealth        float64 `json:"maxHealth" jsonschema:"minimum=1"`
	AttackDamage     float64 `json:"attackDamage"`
	AttackCooldownMS int64   `json:"attackCooldownMs" jsonschema:"minimum=1"`
	AttackRange      float64 `json:"attackRange"`
	MoveSpeed        float64 `json:"moveSpeed"`
	Defense          float64 `json:"defense"`
	Cost             int     `json:"cost" jsonschema:"minimum=0"`
	SpawnCooldownMS  int64   `json:"spawnCooldownMs" jsonschema:"minimum=0"`
}

// TowerDef is the stat block for a defensive tower.
type TowerDef struct {
	MaxHealth        float64 `json:"maxHealth" jsonschema:"minimum=1"`
	AttackDamage     float64 `json:"attackDamage"`
	AttackCooldownMS int64   `json:"attackCooldownMs"`
	AttackRange      float64 `json:"attackRange"`
	Defense          float64 `json:"defense"`
}

// Point is a world-space coordinate in a map definition.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SlotLayout fixes where one seat's pieces start.
type SlotLayout struct {
	Spawn  Point   `json:"spawn"`
	Towers []Point `json:"towers"`
}

// MapDef is the geometry for one arena: grid shape, blocked cells, and the
// per-slot starting layout.
type MapDef struct {
	ID       string  `json:"id" jsonschema:"minLength=1"`
	Rows     int     `json:"rows" jsonschema:"minimum=1"`
	Cols     int     `json:"cols" jsonschema:"minimum=1"`
	OriginX  float64 `json:"originX"`
	OriginY  float64 `json:"originY"`
	CellSize float64 `json:"cellSize" jsonschema:"minimum=0"`
	// Blocked lists non-walkable cells as [row, col] pairs.
	Blocked [][2]int     `json:"blocked,omitempty"`
	Slots   []SlotLayout `json:"slots"`
	Mines   []Point      `json:"mines,omitempty"`
	// MineHealth is the hit points each gold mine starts with; MineGold is
	// the bounty paid to whoever destroys it.
	MineHealth float64 `json:"mineHealth,omitempty"`
	MineGold   int     `json:"mineGold,omitempty"`
}

// BuildGrid materializes the walkability grid for the map.
func (d MapDef) BuildGrid() *nav.Grid {
	grid := nav.NewGrid(d.Rows, d.Cols)
	grid.FillWalkable()
	for _, rc := range d.Blocked {
		grid.SetWalkable(nav.Cell{Row: rc[0], Col: rc[1]}, false)
	}
	return grid
}

// Store is the read-only content lookup the engine consumes.
type Store interface {
	Champion(id string) (ChampionDef, error)
	Troop(troopType string) (TroopDef, error)
	Tower() (TowerDef, error)
	// Map returns the arena for the given id sized for playerCount seats.
	Map(id string, playerCount int) (MapDef, error)
}

// NotFoundError reports a missing definition lookup.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content: no %s definition for %q", e.Kind, e.ID)
}
