package game

import (
	"log"
	"math"
	"sync"
	"time"

	"battle-arena/server/internal/nav"
)

// MapDef describes the world geometry a match plays on: grid dimensions,
// the world-space origin of cell (0,0)'s top-left corner, and the cell edge
// length. Rows grow downward in world space, so Y is flipped.
type MapDef struct {
	Rows     int
	Cols     int
	OriginX  float64
	OriginY  float64
	CellSize float64
}

// Match is one running game's isolated authoritative state. All mutation
// happens under mu; spatial-index updates are atomic with position writes so
// readers never observe an entity in zero or two cells.
type Match struct {
	ID  string
	Map MapDef

	mu       sync.RWMutex
	grid     *nav.Grid
	tick     uint64
	slots    map[int]*Slot
	entities map[string]*Entity

	cellToEntities map[nav.Cell]map[string]*Entity
	entityToCell   map[string]nav.Cell

	// lastCommand throttles per-entity move/attack commands to one per
	// rateLimit window.
	lastCommand map[string]time.Time
	rateLimit   time.Duration

	winnerSlot int
	finished   bool
}

// NewMatch builds an empty match over the given map and walkability grid.
func NewMatch(id string, def MapDef, grid *nav.Grid, rateLimit time.Duration) *Match {
	if grid == nil {
		grid = nav.NewGrid(def.Rows, def.Cols)
		grid.FillWalkable()
	}
	if def.CellSize <= 0 {
		def.CellSize = 1
	}
	return &Match{
		ID:             id,
		Map:            def,
		grid:           grid,
		slots:          make(map[int]*Slot),
		entities:       make(map[string]*Entity),
		cellToEntities: make(map[nav.Cell]map[string]*Entity),
		entityToCell:   make(map[string]nav.Cell),
		lastCommand:    make(map[string]time.Time),
		rateLimit:      rateLimit,
		winnerSlot:     -1,
	}
}

// Grid exposes the walkability grid for path searches.
func (m *Match) Grid() *nav.Grid { return m.grid }

// Tick returns the current tick counter.
func (m *Match) Tick() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tick
}

// AdvanceTick increments and returns the tick counter.
func (m *Match) AdvanceTick() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tick++
	return m.tick
}

// ToGridCell converts a world position to its grid cell. Column grows with
// X; row grows as Y decreases.
func (m *Match) ToGridCell(pos Vec2) nav.Cell {
	return nav.Cell{
		Row: int(math.Floor((m.Map.OriginY - pos.Y) / m.Map.CellSize)),
		Col: int(math.Floor((pos.X - m.Map.OriginX) / m.Map.CellSize)),
	}
}

// ToPosition converts a grid cell to the world position of its center.
func (m *Match) ToPosition(cell nav.Cell) Vec2 {
	return Vec2{
		X: m.Map.OriginX + (float64(cell.Col)+0.5)*m.Map.CellSize,
		Y: m.Map.OriginY - (float64(cell.Row)+0.5)*m.Map.CellSize,
	}
}

// AddSlot registers a player seat.
func (m *Match) AddSlot(slot *Slot) {
	if slot == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot.Number] = slot
}

// SlotByNumber returns the seat with the given number.
func (m *Match) SlotByNumber(number int) (*Slot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.slots[number]
	return slot, ok
}

// Slots returns a snapshot of all seats.
func (m *Match) Slots() []*Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Slot, 0, len(m.slots))
	for _, slot := range m.slots {
		out = append(out, slot)
	}
	return out
}

// ChampionBySlot returns the champion entity seated at the slot number.
func (m *Match) ChampionBySlot(number int) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.slots[number]
	if !ok || slot.Champion == nil {
		return nil, false
	}
	return slot.Champion, true
}

// AddEntity inserts an entity and indexes it by its current position.
func (m *Match) AddEntity(e *Entity) {
	if e == nil || e.ID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entities[e.ID]; exists {
		log.Printf("game: entity %s already present in match %s", e.ID, m.ID)
		return
	}
	m.entities[e.ID] = e
	m.indexLocked(e)
}

// RemoveEntity drops an entity and its spatial index entry. Unknown ids are
// a no-op.
func (m *Match) RemoveEntity(id string) *Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return nil
	}
	delete(m.entities, id)
	m.unindexLocked(id)
	delete(m.lastCommand, id)
	return e
}

// EntityByID looks up an entity.
func (m *Match) EntityByID(id string) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	return e, ok
}

// Entities returns a snapshot slice of every entity in the match.
func (m *Match) Entities() []*Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out
}

// EntitiesInCell returns the entities currently indexed in the cell.
func (m *Match) EntitiesInCell(cell nav.Cell) []*Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.cellToEntities[cell]
	out := make([]*Entity, 0, len(bucket))
	for _, e := range bucket {
		out = append(out, e)
	}
	return out
}

// CellOf returns the indexed cell for an entity.
func (m *Match) CellOf(id string) (nav.Cell, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cell, ok := m.entityToCell[id]
	return cell, ok
}

// SetPosition moves an entity and keeps both spatial maps in step.
func (m *Match) SetPosition(id string, pos Vec2) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setPositionLocked(id, pos)
}

func (m *Match) setPositionLocked(id string, pos Vec2) {
	e, ok := m.entities[id]
	if !ok {
		return
	}
	e.Pos = pos
	next := m.ToGridCell(pos)
	if prev, ok := m.entityToCell[id]; ok {
		if prev == next {
			return
		}
		if bucket := m.cellToEntities[prev]; bucket != nil {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(m.cellToEntities, prev)
			}
		}
	}
	bucket := m.cellToEntities[next]
	if bucket == nil {
		bucket = make(map[string]*Entity)
		m.cellToEntities[next] = bucket
	}
	bucket[id] = e
	m.entityToCell[id] = next
}

func (m *Match) indexLocked(e *Entity) {
	cell := m.ToGridCell(e.Pos)
	bucket := m.cellToEntities[cell]
	if bucket == nil {
		bucket = make(map[string]*Entity)
		m.cellToEntities[cell] = bucket
	}
	bucket[e.ID] = e
	m.entityToCell[e.ID] = cell
}

func (m *Match) unindexLocked(id string) {
	cell, ok := m.entityToCell[id]
	if !ok {
		return
	}
	if bucket := m.cellToEntities[cell]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(m.cellToEntities, cell)
		}
	}
	delete(m.entityToCell, id)
}

// AllowCommand enforces the per-entity command rate limit. The first command
// in each window is admitted and stamps the window; later ones are dropped.
func (m *Match) AllowCommand(entityID string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last, ok := m.lastCommand[entityID]; ok && now.Sub(last) < m.rateLimit {
		return false
	}
	m.lastCommand[entityID] = now
	return true
}

// Finish records the winning slot once; later calls are ignored.
func (m *Match) Finish(winnerSlot int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		return false
	}
	m.finished = true
	m.winnerSlot = winnerSlot
	return true
}

// Finished reports whether the match has ended and who won.
func (m *Match) Finished() (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.winnerSlot, m.finished
}

// Distance returns the Euclidean distance between two world positions.
func Distance(a, b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
