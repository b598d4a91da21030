package game

import (
	"sync"
	"testing"
	"time"

	"battle-arena/server/internal/nav"
)

func testMapDef() MapDef {
	return MapDef{Rows: 20, Cols: 20, OriginX: 0, OriginY: 20, CellSize: 1}
}

func openMatch(t *testing.T) *Match {
	t.Helper()
	def := testMapDef()
	grid := nav.NewGrid(def.Rows, def.Cols)
	grid.FillWalkable()
	return NewMatch("m1", def, grid, 50*time.Millisecond)
}

func newWalker(id string, pos Vec2, speed float64) *Entity {
	return &Entity{
		ID:       id,
		Kind:     KindChampion,
		Pos:      pos,
		SpawnPos: pos,
		Health:   NewHealth(100),
		Movement: &MovementComponent{Speed: speed},
	}
}

func TestGridConversionRoundTrip(t *testing.T) {
	m := openMatch(t)

	cell := nav.Cell{Row: 3, Col: 7}
	pos := m.ToPosition(cell)
	if got := m.ToGridCell(pos); got != cell {
		t.Fatalf("cell center must convert back: %v -> %v -> %v", cell, pos, got)
	}
	// Y axis is flipped: larger row means smaller Y.
	lower := m.ToPosition(nav.Cell{Row: 4, Col: 7})
	if lower.Y >= pos.Y {
		t.Fatalf("row 4 should sit below row 3: %v vs %v", lower, pos)
	}
}

func TestGoldNeverGoesNegative(t *testing.T) {
	slot := NewSlot(0, "u1")
	slot.AddGold(100)

	if slot.SpendGold(150) {
		t.Fatalf("overspend must fail")
	}
	if slot.Gold() != 100 {
		t.Fatalf("failed spend must not touch the balance, got %d", slot.Gold())
	}
	if !slot.SpendGold(40) {
		t.Fatalf("affordable spend must succeed")
	}
	slot.AddGold(40)
	if slot.Gold() != 100 {
		t.Fatalf("add then spend of the same amount should restore balance, got %d", slot.Gold())
	}
}

func TestGoldSurvivesConcurrentFlow(t *testing.T) {
	slot := NewSlot(0, "u1")
	slot.AddGold(1000)

	const spenders = 4
	const spendsEach = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	wg.Add(spenders + 1)
	go func() {
		defer wg.Done()
		for i := 0; i < spenders*spendsEach; i++ {
			slot.AddGold(5)
		}
	}()
	for i := 0; i < spenders; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < spendsEach; j++ {
				if slot.SpendGold(10) {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
				if slot.Gold() < 0 {
					t.Errorf("balance went negative")
					return
				}
			}
		}()
	}
	wg.Wait()

	want := 1000 + spenders*spendsEach*5 - succeeded*10
	if got := slot.Gold(); got != want {
		t.Fatalf("lost an update: balance %d, want %d after %d spends", got, want, succeeded)
	}
}

func TestSpatialIndexFollowsPosition(t *testing.T) {
	m := openMatch(t)
	e := newWalker("e1", m.ToPosition(nav.Cell{Row: 0, Col: 0}), 1)
	m.AddEntity(e)

	from := nav.Cell{Row: 0, Col: 0}
	to := nav.Cell{Row: 0, Col: 1}
	if cell, ok := m.CellOf("e1"); !ok || cell != from {
		t.Fatalf("entity should index at %v, got %v", from, cell)
	}

	m.SetPosition("e1", m.ToPosition(to))
	if cell, _ := m.CellOf("e1"); cell != to {
		t.Fatalf("index should follow the move, got %v", cell)
	}
	if got := m.EntitiesInCell(from); len(got) != 0 {
		t.Fatalf("old cell should be empty, got %d entities", len(got))
	}
	if got := m.EntitiesInCell(to); len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("new cell should hold the entity")
	}

	m.RemoveEntity("e1")
	if _, ok := m.CellOf("e1"); ok {
		t.Fatalf("removed entity must leave the index")
	}
}

func TestMovementConvergesAndArrivalIsIdempotent(t *testing.T) {
	m := openMatch(t)
	start := m.ToPosition(nav.Cell{Row: 0, Col: 0})
	target := m.ToPosition(nav.Cell{Row: 0, Col: 5})
	e := newWalker("e1", start, 2)
	m.AddEntity(e)

	base := time.Unix(1000, 0)
	if !m.SetMove("e1", target, base) {
		t.Fatalf("SetMove failed")
	}

	now := base
	for i := 0; i < 200 && e.Movement.Target != nil; i++ {
		now = now.Add(50 * time.Millisecond)
		m.UpdatePositions(now)
	}
	if e.Movement.Target != nil {
		t.Fatalf("move never finished, at %v", e.Pos)
	}
	if Distance(e.Pos, target) > 1e-9 {
		t.Fatalf("expected arrival at %v, got %v", target, e.Pos)
	}

	// Further ticks after arrival must not move the entity.
	m.UpdatePositions(now.Add(time.Second))
	m.UpdatePositions(now.Add(2 * time.Second))
	if Distance(e.Pos, target) > 1e-9 {
		t.Fatalf("position drifted after arrival: %v", e.Pos)
	}
}

func TestMovementInterpolatesMidLeg(t *testing.T) {
	m := openMatch(t)
	start := m.ToPosition(nav.Cell{Row: 0, Col: 0})
	e := newWalker("e1", start, 1)
	m.AddEntity(e)

	base := time.Unix(1000, 0)
	target := m.ToPosition(nav.Cell{Row: 0, Col: 1})
	if !m.SetMove("e1", target, base) {
		t.Fatalf("SetMove failed")
	}

	// Half the leg's travel time should cover half the distance.
	m.UpdatePositions(base.Add(500 * time.Millisecond))
	want := Vec2{X: start.X + 0.5, Y: start.Y}
	if Distance(e.Pos, want) > 1e-9 {
		t.Fatalf("expected midpoint %v, got %v", want, e.Pos)
	}
}

func TestCommandMoveRateLimited(t *testing.T) {
	m := openMatch(t)
	e := newWalker("e1", m.ToPosition(nav.Cell{Row: 0, Col: 0}), 1)
	m.AddEntity(e)

	base := time.Unix(1000, 0)
	a := m.ToPosition(nav.Cell{Row: 0, Col: 3})
	b := m.ToPosition(nav.Cell{Row: 3, Col: 0})

	if !m.CommandMove("e1", a, base) {
		t.Fatalf("first command must apply")
	}
	if m.CommandMove("e1", b, base.Add(20*time.Millisecond)) {
		t.Fatalf("second command inside 50ms must be dropped")
	}
	if e.Movement.Target.Target.X != m.ToPosition(nav.Cell{Row: 0, Col: 1}).X {
		t.Fatalf("dropped command must not replace the route")
	}
	if !m.CommandMove("e1", b, base.Add(60*time.Millisecond)) {
		t.Fatalf("command after the window must apply")
	}
}

func TestApplyDamageClampsAndDiesOnce(t *testing.T) {
	h := NewHealth(100)

	if hp, died := h.ApplyDamage(40); died || hp != 60 {
		t.Fatalf("first hit: died=%v hp=%v", died, hp)
	}
	if hp, died := h.ApplyDamage(40); died || hp != 20 {
		t.Fatalf("second hit: died=%v hp=%v", died, hp)
	}
	if hp, died := h.ApplyDamage(40); !died || hp != 0 {
		t.Fatalf("third hit must kill and clamp: died=%v hp=%v", died, hp)
	}
	if _, died := h.ApplyDamage(40); died {
		t.Fatalf("a dead component must not die twice")
	}
	if hp := h.Heal(50); hp != 0 {
		t.Fatalf("healing the dead must be a no-op, hp=%v", hp)
	}
	h.Restore()
	if !h.Alive() || h.Current() != 100 {
		t.Fatalf("restore should revive at full health")
	}
}

func TestApplyDamageConcurrentDiesOnce(t *testing.T) {
	h := NewHealth(100)

	const hitters = 8
	var wg sync.WaitGroup
	deaths := make(chan struct{}, hitters)
	wg.Add(hitters)
	for i := 0; i < hitters; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, died := h.ApplyDamage(1); died {
					deaths <- struct{}{}
				}
			}
		}()
	}
	wg.Wait()
	close(deaths)

	n := 0
	for range deaths {
		n++
	}
	if n != 1 {
		t.Fatalf("exactly one goroutine may observe the death transition, got %d", n)
	}
	if h.Current() != 0 || h.Alive() {
		t.Fatalf("component should be dead at zero, hp=%v", h.Current())
	}
}

func TestHealClampsAtMax(t *testing.T) {
	h := NewHealth(100)
	h.ApplyDamage(20)
	if hp := h.Heal(50); hp != 100 {
		t.Fatalf("heal must clamp at max, got %v", hp)
	}
}

func TestLinearMitigationFloorsAtOne(t *testing.T) {
	if got := LinearMitigation(10, 4); got != 8 {
		t.Fatalf("expected 8, got %v", got)
	}
	if got := LinearMitigation(3, 100); got != 1 {
		t.Fatalf("mitigated damage floors at 1, got %v", got)
	}
}

func TestFinishRecordsWinnerOnce(t *testing.T) {
	m := openMatch(t)
	if !m.Finish(2) {
		t.Fatalf("first finish should apply")
	}
	if m.Finish(3) {
		t.Fatalf("second finish must be ignored")
	}
	winner, done := m.Finished()
	if !done || winner != 2 {
		t.Fatalf("winner should stay 2, got %d done=%v", winner, done)
	}
}
