package content

import "sync"

// MemoryStore serves definitions from in-process maps. It ships with a
// default content set and backs tests and single-node deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	champions map[string]ChampionDef
	troops    map[string]TroopDef
	tower     TowerDef
	maps      map[string]MapDef
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		champions: make(map[string]ChampionDef),
		troops:    make(map[string]TroopDef),
		maps:      make(map[string]MapDef),
	}
}

// DefaultStore returns a store seeded with the stock content set.
func DefaultStore() *MemoryStore {
	s := NewMemoryStore()
	s.PutChampion(ChampionDef{
		ID: "blade-master", Name: "Blade Master",
		MaxHealth: 300, AttackDamage: 30, AttackCooldownMS: 1000,
		AttackRange: 2, MoveSpeed: 4, Defense: 10,
		SkillID: "whirlwind", SkillPower: 60, SkillCooldownMS: 8000, SkillRadius: 3,
	})
	s.PutChampion(ChampionDef{
		ID: "storm-caller", Name: "Storm Caller",
		MaxHealth: 240, AttackDamage: 24, AttackCooldownMS: 900,
		AttackRange: 5, MoveSpeed: 4, Defense: 6,
		SkillID: "lightning", SkillPower: 80, SkillCooldownMS: 10000, SkillRadius: 2,
	})
	s.PutTroop(TroopDef{
		Type: "melee", Role: "melee",
		MaxHealth: 100, AttackDamage: 12, AttackCooldownMS: 1200,
		AttackRange: 1.5, MoveSpeed: 3, Defense: 4,
		Cost: 50, SpawnCooldownMS: 5000,
	})
	s.PutTroop(TroopDef{
		Type: "ranged", Role: "ranged",
		MaxHealth: 70, AttackDamage: 16, AttackCooldownMS: 1500,
		AttackRange: 5, MoveSpeed: 3, Defense: 2,
		Cost: 70, SpawnCooldownMS: 6000,
	})
	s.PutTroop(TroopDef{
		Type: "healer", Role: "healer",
		MaxHealth: 80, AttackDamage: 4, AttackCooldownMS: 2000,
		AttackRange: 1.5, MoveSpeed: 3, Defense: 2,
		Cost: 80, SpawnCooldownMS: 8000,
	})
	s.SetTower(TowerDef{
		MaxHealth: 500, AttackDamage: 20, AttackCooldownMS: 1500,
		AttackRange: 6, Defense: 15,
	})
	s.PutMap(MapDef{
		ID: "arena", Rows: 40, Cols: 40, OriginX: 0, OriginY: 40, CellSize: 1,
		Slots: []SlotLayout{
			{Spawn: Point{X: 2.5, Y: 37.5}, Towers: []Point{{X: 5.5, Y: 34.5}, {X: 8.5, Y: 31.5}}},
			{Spawn: Point{X: 37.5, Y: 2.5}, Towers: []Point{{X: 34.5, Y: 5.5}, {X: 31.5, Y: 8.5}}},
			{Spawn: Point{X: 2.5, Y: 2.5}, Towers: []Point{{X: 5.5, Y: 5.5}}},
			{Spawn: Point{X: 37.5, Y: 37.5}, Towers: []Point{{X: 34.5, Y: 34.5}}},
		},
		Mines:      []Point{{X: 20.5, Y: 20.5}, {X: 10.5, Y: 29.5}, {X: 29.5, Y: 10.5}},
		MineHealth: 150, MineGold: 100,
	})
	return s
}

// PutChampion stores or replaces a champion definition.
func (s *MemoryStore) PutChampion(def ChampionDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.champions[def.ID] = def
}

// PutTroop stores or replaces a troop definition.
func (s *MemoryStore) PutTroop(def TroopDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.troops[def.Type] = def
}

// SetTower stores the tower definition.
func (s *MemoryStore) SetTower(def TowerDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tower = def
}

// PutMap stores or replaces a map definition.
func (s *MemoryStore) PutMap(def MapDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps[def.ID] = def
}

// Champion implements Store.
func (s *MemoryStore) Champion(id string) (ChampionDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.champions[id]
	if !ok {
		return ChampionDef{}, &NotFoundError{Kind: "champion", ID: id}
	}
	return def, nil
}

// Troop implements Store.
func (s *MemoryStore) Troop(troopType string) (TroopDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.troops[troopType]
	if !ok {
		return TroopDef{}, &NotFoundError{Kind: "troop", ID: troopType}
	}
	return def, nil
}

// Tower implements Store.
func (s *MemoryStore) Tower() (TowerDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tower.MaxHealth <= 0 {
		return TowerDef{}, &NotFoundError{Kind: "tower", ID: "default"}
	}
	return s.tower, nil
}

// Map implements Store. The returned definition keeps only the first
// playerCount slot layouts.
func (s *MemoryStore) Map(id string, playerCount int) (MapDef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.maps[id]
	if !ok {
		return MapDef{}, &NotFoundError{Kind: "map", ID: id}
	}
	if playerCount > 0 && playerCount < len(def.Slots) {
		def.Slots = def.Slots[:playerCount]
	}
	return def, nil
}
