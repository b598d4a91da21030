package room

import (
	"testing"
	"time"

	"battle-arena/server/internal/content"
	"battle-arena/server/internal/game"
)

func twoSeatAssignment() Assignment {
	return Assignment{
		MatchID: "m1",
		MapID:   "arena",
		Seats: []Seat{
			{Slot: 0, UserID: "alice", ChampionID: "blade-master"},
			{Slot: 1, UserID: "bob", ChampionID: "storm-caller"},
		},
	}
}

func TestSeedBuildsFullMatch(t *testing.T) {
	seeder := NewSeeder(content.DefaultStore(), 50*time.Millisecond, 10)
	m, err := seeder.Seed(twoSeatAssignment())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	for slotNum, wantChamp := range map[int]string{0: "champ-0", 1: "champ-1"} {
		slot, ok := m.SlotByNumber(slotNum)
		if !ok {
			t.Fatalf("slot %d missing", slotNum)
		}
		if slot.Champion == nil || slot.Champion.ID != wantChamp {
			t.Fatalf("slot %d champion wrong: %+v", slotNum, slot.Champion)
		}
		if len(slot.Towers) == 0 {
			t.Fatalf("slot %d has no towers", slotNum)
		}
		if !slot.Champion.Alive() || slot.Champion.Skill == nil {
			t.Fatalf("champion must spawn alive with a skill")
		}
		if game.Distance(slot.Champion.Pos, slot.Champion.SpawnPos) != 0 {
			t.Fatalf("champion must start at its spawn")
		}
	}

	mines := 0
	for _, e := range m.Entities() {
		if e.Kind != game.KindGoldMine {
			continue
		}
		mines++
		if !e.Health.Alive() || e.Health.Max() <= 0 {
			t.Fatalf("mines must spawn destructible, got %+v", e.Health)
		}
		if e.Bounty <= 0 {
			t.Fatalf("mines must carry a bounty")
		}
	}
	if mines == 0 {
		t.Fatalf("map should seed gold mines")
	}
}

func TestSeedRejectsBadAssignments(t *testing.T) {
	seeder := NewSeeder(content.DefaultStore(), 50*time.Millisecond, 10)

	bad := []Assignment{
		{},
		{MatchID: "m", MapID: "arena"},
		{MatchID: "m", MapID: "arena", Seats: []Seat{{Slot: 0, UserID: "a"}, {Slot: 0, UserID: "b"}}},
		{MatchID: "m", MapID: "arena", Seats: []Seat{{Slot: 0, UserID: "a"}, {Slot: 1, UserID: "a"}}},
		{MatchID: "m", MapID: "nope", Seats: []Seat{{Slot: 0, UserID: "a", ChampionID: "blade-master"}}},
		{MatchID: "m", MapID: "arena", Seats: []Seat{{Slot: 0, UserID: "a", ChampionID: "nope"}}},
	}
	for i, a := range bad {
		if _, err := seeder.Seed(a); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestSpawnTroopJoinsSlot(t *testing.T) {
	store := content.DefaultStore()
	seeder := NewSeeder(store, 50*time.Millisecond, 10)
	m, err := seeder.Seed(twoSeatAssignment())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	def, _ := store.Troop("healer")
	troop, err := seeder.SpawnTroop(m, 0, def, game.Vec2{X: 3.5, Y: 36.5})
	if err != nil {
		t.Fatalf("SpawnTroop: %v", err)
	}
	if troop.Role != game.RoleHealer || troop.AI == nil {
		t.Fatalf("troop should carry its role and AI state")
	}
	slot, _ := m.SlotByNumber(0)
	if _, ok := slot.Troops[troop.ID]; !ok {
		t.Fatalf("troop must join its slot")
	}
	if _, ok := m.EntityByID(troop.ID); !ok {
		t.Fatalf("troop must join the match")
	}
}
