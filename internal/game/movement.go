package game

import (
	"time"
)

// SetMove plans a route from the entity's current position to target and
// starts the first leg. Any in-progress move is replaced. Returns false when
// the entity cannot move or no route exists.
func (m *Match) SetMove(entityID string, target Vec2, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[entityID]
	if !ok || !e.CanMove() || !e.Alive() {
		return false
	}

	path := m.grid.FindPath(m.ToGridCell(e.Pos), m.ToGridCell(target))
	if len(path) == 0 {
		return false
	}

	// Skip the start cell and route through cell centers; the final leg
	// heads to the exact requested position when the path reaches the
	// target cell.
	waypoints := make([]Vec2, 0, len(path))
	for _, cell := range path[1:] {
		waypoints = append(waypoints, m.ToPosition(cell))
	}
	if path[len(path)-1] == m.ToGridCell(target) {
		if len(waypoints) == 0 {
			waypoints = append(waypoints, target)
		} else {
			waypoints[len(waypoints)-1] = target
		}
	}
	if len(waypoints) == 0 {
		return false
	}

	e.Movement.Target = &MoveTarget{
		Start:     e.Pos,
		Target:    waypoints[0],
		Speed:     e.Movement.Speed,
		StartedAt: now,
	}
	e.Movement.Waypoints = waypoints[1:]
	return true
}

// CommandMove is the player-facing variant of SetMove: it applies the
// per-entity rate limit and drops excess commands without error.
func (m *Match) CommandMove(entityID string, target Vec2, now time.Time) bool {
	if !m.AllowCommand(entityID, now) {
		return false
	}
	return m.SetMove(entityID, target, now)
}

// StopMovement clears any in-progress move, leaving the entity where it is.
func (m *Match) StopMovement(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[entityID]
	if !ok || e.Movement == nil {
		return
	}
	e.Movement.Target = nil
	e.Movement.Waypoints = nil
}

// UpdatePositions advances every in-progress move to its position at now:
// interpolating along the current leg, snapping to the waypoint when its
// travel time has elapsed, and starting the next leg or clearing the move
// state on arrival. Calling again after arrival is a no-op.
func (m *Match) UpdatePositions(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entities {
		mv := e.Movement
		if mv == nil || mv.Target == nil {
			continue
		}
		t := mv.Target
		distance := Distance(t.Start, t.Target)
		elapsed := now.Sub(t.StartedAt).Seconds()

		arrived := distance == 0 || t.Speed <= 0
		if !arrived {
			arrived = elapsed >= distance/t.Speed
		}
		if !arrived {
			frac := elapsed / (distance / t.Speed)
			if frac < 0 {
				frac = 0
			}
			m.setPositionLocked(id, Vec2{
				X: t.Start.X + (t.Target.X-t.Start.X)*frac,
				Y: t.Start.Y + (t.Target.Y-t.Start.Y)*frac,
			})
			continue
		}

		m.setPositionLocked(id, t.Target)
		if len(mv.Waypoints) > 0 {
			mv.Target = &MoveTarget{
				Start:     t.Target,
				Target:    mv.Waypoints[0],
				Speed:     mv.Speed,
				StartedAt: now,
			}
			mv.Waypoints = mv.Waypoints[1:]
		} else {
			mv.Target = nil
			mv.Waypoints = nil
		}
	}
}
