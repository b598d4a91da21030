// Package ai drives autonomous troops with a small level-triggered state
// machine built on the movement and combat subsystems.
package ai

import (
	"time"

	"battle-arena/server/internal/combat"
	"battle-arena/server/internal/game"
)

// Config holds the tunable controller constants.
type Config struct {
	// Sight is how far a troop scans for enemies.
	Sight float64
	// HealRange is how close a healer must be to apply a heal.
	HealRange float64
	// HealThreshold is the health fraction below which allies get healed
	// and above which a retreating troop returns to duty.
	HealThreshold float64
	// RetreatThreshold is the health fraction below which a troop flees.
	RetreatThreshold float64
	// HealAmount is the fixed heal applied per application.
	HealAmount float64
	// HealCooldown is the minimum time between heal applications.
	HealCooldown time.Duration
	// RetreatDistance is how far a fleeing troop runs per decision.
	RetreatDistance float64
}

// DefaultConfig returns the standard controller constants.
func DefaultConfig() Config {
	return Config{
		Sight:            8,
		HealRange:        6,
		HealThreshold:    0.70,
		RetreatThreshold: 0.30,
		HealAmount:       15,
		HealCooldown:     time.Second,
		RetreatDistance:  8,
	}
}

// Controller evaluates every live troop's state machine once per AI tick.
// Transitions are level-triggered: each pass re-derives the state from the
// current world, keeping no history beyond the state field itself.
type Controller struct {
	cfg    Config
	combat *combat.Service
}

// NewController builds a troop controller over the shared combat service.
func NewController(cfg Config, svc *combat.Service) *Controller {
	if cfg.Sight <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{cfg: cfg, combat: svc}
}

// Tick runs one decision pass over every live troop in the match.
func (c *Controller) Tick(m *game.Match, now time.Time) {
	if m == nil {
		return
	}
	for _, e := range m.Entities() {
		if e.Kind != game.KindTroop || e.AI == nil || !e.Alive() {
			continue
		}
		c.step(m, e, now)
		e.AI.LastUpdate = now
	}
}

func (c *Controller) step(m *game.Match, troop *game.Entity, now time.Time) {
	switch troop.AI.State {
	case game.StateIdle:
		c.idle(m, troop)
	case game.StateSeeking:
		c.seek(m, troop, now)
	case game.StateAttacking:
		c.attack(m, troop, now)
	case game.StateRetreating:
		c.retreat(m, troop, now)
	case game.StateHealingAlly:
		c.healAlly(m, troop, now)
	default:
		troop.AI.State = game.StateIdle
	}
}

func (c *Controller) idle(m *game.Match, troop *game.Entity) {
	if troop.Health.Fraction() < c.cfg.RetreatThreshold {
		troop.AI.State = game.StateRetreating
		troop.AI.TargetID = ""
		return
	}
	if troop.Role == game.RoleHealer {
		if ally := c.woundedAlly(m, troop); ally != nil {
			troop.AI.State = game.StateHealingAlly
			troop.AI.TargetID = ally.ID
			return
		}
	}
	if enemy := c.nearestEnemyTroop(m, troop, c.cfg.Sight); enemy != nil {
		troop.AI.State = game.StateSeeking
		troop.AI.TargetID = enemy.ID
	}
}

func (c *Controller) seek(m *game.Match, troop *game.Entity, now time.Time) {
	target, ok := m.EntityByID(troop.AI.TargetID)
	if !ok || !target.Alive() {
		c.toIdle(m, troop)
		return
	}
	if troop.Attack != nil &&
		game.Distance(troop.Pos, target.Pos) <= troop.Attack.Range &&
		troop.Attack.Ready(now) {
		troop.AI.State = game.StateAttacking
		c.combat.SetAttack(m, troop.ID, target.ID, now)
		return
	}
	m.SetMove(troop.ID, target.Pos, now)
}

func (c *Controller) attack(m *game.Match, troop *game.Entity, now time.Time) {
	target, ok := m.EntityByID(troop.AI.TargetID)
	if !ok || !target.Alive() {
		c.toIdle(m, troop)
		return
	}
	if troop.Attack == nil || game.Distance(troop.Pos, target.Pos) > troop.Attack.Range {
		troop.AI.State = game.StateSeeking
		return
	}
	// The combat loop performs the swings; keep the pursuit context alive.
	c.combat.SetAttack(m, troop.ID, target.ID, now)
}

func (c *Controller) retreat(m *game.Match, troop *game.Entity, now time.Time) {
	if troop.Health.Fraction() > c.cfg.HealThreshold {
		c.toIdle(m, troop)
		return
	}
	enemy := c.nearestEnemy(m, troop, c.cfg.Sight)
	if enemy == nil {
		c.toIdle(m, troop)
		return
	}
	dx := troop.Pos.X - enemy.Pos.X
	dy := troop.Pos.Y - enemy.Pos.Y
	dist := game.Distance(troop.Pos, enemy.Pos)
	if dist == 0 {
		dx, dy, dist = 1, 0, 1
	}
	away := game.Vec2{
		X: troop.Pos.X + dx/dist*c.cfg.RetreatDistance,
		Y: troop.Pos.Y + dy/dist*c.cfg.RetreatDistance,
	}
	m.SetMove(troop.ID, away, now)
}

func (c *Controller) healAlly(m *game.Match, troop *game.Entity, now time.Time) {
	ally, ok := m.EntityByID(troop.AI.TargetID)
	if !ok || !ally.Alive() || ally.Health.Fraction() >= 1 {
		c.toIdle(m, troop)
		return
	}
	if game.Distance(troop.Pos, ally.Pos) > c.cfg.HealRange {
		m.SetMove(troop.ID, ally.Pos, now)
		return
	}
	if now.Sub(troop.AI.LastHeal) < c.cfg.HealCooldown {
		return
	}
	ally.Health.Heal(c.cfg.HealAmount)
	troop.AI.LastHeal = now
	c.combat.RecordHeal(m.ID, ally)
}

func (c *Controller) toIdle(m *game.Match, troop *game.Entity) {
	troop.AI.State = game.StateIdle
	troop.AI.TargetID = ""
	c.combat.StopAttack(m.ID, troop.ID)
}

// woundedAlly returns the nearest same-slot troop below the heal threshold
// within heal range.
func (c *Controller) woundedAlly(m *game.Match, troop *game.Entity) *game.Entity {
	var best *game.Entity
	bestDist := c.cfg.HealRange
	for _, e := range m.Entities() {
		if e.ID == troop.ID || e.Kind != game.KindTroop || e.Slot != troop.Slot {
			continue
		}
		if !e.Alive() || e.Health.Fraction() >= c.cfg.HealThreshold {
			continue
		}
		if d := game.Distance(troop.Pos, e.Pos); d <= bestDist {
			best = e
			bestDist = d
		}
	}
	return best
}

// nearestEnemyTroop scans hostile troops within radius.
func (c *Controller) nearestEnemyTroop(m *game.Match, troop *game.Entity, radius float64) *game.Entity {
	return c.scanEnemies(m, troop, radius, true)
}

// nearestEnemy scans any hostile attackable entity within radius.
func (c *Controller) nearestEnemy(m *game.Match, troop *game.Entity, radius float64) *game.Entity {
	return c.scanEnemies(m, troop, radius, false)
}

func (c *Controller) scanEnemies(m *game.Match, troop *game.Entity, radius float64, troopsOnly bool) *game.Entity {
	var best *game.Entity
	bestDist := radius
	for _, e := range m.Entities() {
		if e.Slot == troop.Slot || e.Health == nil || !e.Alive() {
			continue
		}
		if troopsOnly && e.Kind != game.KindTroop {
			continue
		}
		if e.Kind == game.KindGoldMine {
			continue
		}
		if d := game.Distance(troop.Pos, e.Pos); d <= bestDist {
			best = e
			bestDist = d
		}
	}
	return best
}
