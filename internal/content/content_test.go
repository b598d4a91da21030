package content

import (
	"testing"

	"battle-arena/server/internal/nav"
)

func TestDefaultStoreServesStockContent(t *testing.T) {
	s := DefaultStore()

	champ, err := s.Champion("blade-master")
	if err != nil {
		t.Fatalf("Champion: %v", err)
	}
	if champ.MaxHealth <= 0 || champ.AttackCooldownMS <= 0 {
		t.Fatalf("champion stats incomplete: %+v", champ)
	}

	for _, troopType := range []string{"melee", "ranged", "healer"} {
		troop, err := s.Troop(troopType)
		if err != nil {
			t.Fatalf("Troop(%s): %v", troopType, err)
		}
		if troop.Cost <= 0 {
			t.Fatalf("troop %s must cost gold", troopType)
		}
	}

	if _, err := s.Tower(); err != nil {
		t.Fatalf("Tower: %v", err)
	}
}

func TestUnknownLookupsReturnNotFound(t *testing.T) {
	s := DefaultStore()
	if _, err := s.Champion("nope"); err == nil {
		t.Fatalf("expected not-found error")
	}
	var nf *NotFoundError
	_, err := s.Troop("nope")
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	if nf, _ = err.(*NotFoundError); nf == nil || nf.Kind != "troop" {
		t.Fatalf("expected troop NotFoundError, got %v", err)
	}
}

func TestMapTrimsSlotsToPlayerCount(t *testing.T) {
	s := DefaultStore()
	def, err := s.Map("arena", 2)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(def.Slots) != 2 {
		t.Fatalf("expected 2 slot layouts, got %d", len(def.Slots))
	}
}

func TestBuildGridAppliesBlockedCells(t *testing.T) {
	def := MapDef{ID: "t", Rows: 4, Cols: 4, CellSize: 1, Blocked: [][2]int{{1, 1}, {2, 2}}}
	grid := def.BuildGrid()
	if grid.Walkable(nav.Cell{Row: 1, Col: 1}) || grid.Walkable(nav.Cell{Row: 2, Col: 2}) {
		t.Fatalf("blocked cells must not be walkable")
	}
	if !grid.Walkable(nav.Cell{Row: 0, Col: 0}) {
		t.Fatalf("unblocked cells stay walkable")
	}
}
