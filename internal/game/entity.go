// Package game holds the per-match authoritative world state: slots,
// entities and their components, the spatial grid index, and the movement
// subsystem that advances positions between ticks.
package game

import (
	"sync"
	"time"
)

// Kind discriminates the fixed set of entity variants.
type Kind uint8

const (
	KindChampion Kind = iota + 1
	KindTroop
	KindTower
	KindGoldMine
)

func (k Kind) String() string {
	switch k {
	case KindChampion:
		return "champion"
	case KindTroop:
		return "troop"
	case KindTower:
		return "tower"
	case KindGoldMine:
		return "gold-mine"
	default:
		return "unknown"
	}
}

// Vec2 is a world-space position.
type Vec2 struct {
	X float64
	Y float64
}

// HealthComponent tracks hit points. The dead flag latches on the first
// transition to zero so death handling runs exactly once, even when damage
// arrives from the simulation loop and a connection goroutine at once. All
// state lives behind the mutex; mutate and read through the methods only.
type HealthComponent struct {
	mu      sync.Mutex
	current float64
	max     float64
	dead    bool
}

// NewHealth builds a component at full health.
func NewHealth(max float64) *HealthComponent {
	return &HealthComponent{current: max, max: max}
}

// Alive reports whether the entity still has hit points.
func (h *HealthComponent) Alive() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.dead && h.current > 0
}

// ApplyDamage reduces hit points, clamped at zero, and reports whether this
// call caused the death transition. Damage on an already dead component is a
// no-op and never reports a second death.
func (h *HealthComponent) ApplyDamage(amount float64) (remaining float64, died bool) {
	if h == nil {
		return 0, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead || amount <= 0 {
		return h.current, false
	}
	h.current -= amount
	if h.current <= 0 {
		h.current = 0
		h.dead = true
		return 0, true
	}
	return h.current, false
}

// Heal restores hit points, clamped at max, and returns the new total. Dead
// components stay dead.
func (h *HealthComponent) Heal(amount float64) float64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead || amount <= 0 {
		return h.current
	}
	h.current += amount
	if h.current > h.max {
		h.current = h.max
	}
	return h.current
}

// Restore resets the component to full health and clears the dead latch.
// Used by champion respawn.
func (h *HealthComponent) Restore() float64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = h.max
	h.dead = false
	return h.current
}

// Current returns the hit points left.
func (h *HealthComponent) Current() float64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Max returns the hit point ceiling.
func (h *HealthComponent) Max() float64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.max
}

// Snapshot returns current and max under one lock acquisition, for event
// payloads that must carry a consistent pair.
func (h *HealthComponent) Snapshot() (current, max float64) {
	if h == nil {
		return 0, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.max
}

// Fraction returns current/max, or 0 for a missing or empty component.
func (h *HealthComponent) Fraction() float64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.max <= 0 {
		return 0
	}
	return h.current / h.max
}

// DamageFunc computes the damage one attack deals given the attacker's base
// damage and the target's defense. Strategies vary per entity kind.
type DamageFunc func(baseDamage, targetDefense float64) float64

// LinearMitigation is the default strategy: half the defense is subtracted
// from base damage, floored at 1.
func LinearMitigation(baseDamage, targetDefense float64) float64 {
	dmg := baseDamage - targetDefense/2
	if dmg < 1 {
		return 1
	}
	return dmg
}

// AttackComponent holds offensive stats and the cooldown bookkeeping used by
// the combat loop.
type AttackComponent struct {
	BaseDamage float64
	Cooldown   time.Duration
	Range      float64
	LastAttack time.Time
	Damage     DamageFunc
}

// Ready reports whether the cooldown has elapsed at now.
func (a *AttackComponent) Ready(now time.Time) bool {
	if a == nil {
		return false
	}
	return now.Sub(a.LastAttack) >= a.Cooldown
}

// ComputeDamage applies the component's strategy, falling back to
// LinearMitigation when none is configured.
func (a *AttackComponent) ComputeDamage(targetDefense float64) float64 {
	fn := a.Damage
	if fn == nil {
		fn = LinearMitigation
	}
	return fn(a.BaseDamage, targetDefense)
}

// MoveTarget is the transient interpolation state for one waypoint leg.
type MoveTarget struct {
	Start     Vec2
	Target    Vec2
	Speed     float64
	StartedAt time.Time
}

// MovementComponent holds speed plus the active waypoint queue.
type MovementComponent struct {
	Speed     float64
	Target    *MoveTarget
	Waypoints []Vec2
}

// Moving reports whether a move is in progress.
func (m *MovementComponent) Moving() bool {
	return m != nil && m.Target != nil
}

// AttributeComponent carries defensive and role stats.
type AttributeComponent struct {
	Defense float64
}

// DefenseOf returns the defense value, treating a missing component as zero.
func (a *AttributeComponent) DefenseOf() float64 {
	if a == nil {
		return 0
	}
	return a.Defense
}

// SkillComponent tracks per-skill cooldown state for a champion.
type SkillComponent struct {
	Power    float64
	Cooldown time.Duration
	// Radius is the area-of-effect span for point casts. Zero means the
	// skill only works against a targeted entity.
	Radius     float64
	LastCast   map[string]time.Time
	Mitigation DamageFunc
}

// Ready reports whether the named skill is off cooldown at now.
func (s *SkillComponent) Ready(skillID string, now time.Time) bool {
	if s == nil {
		return false
	}
	last, ok := s.LastCast[skillID]
	if !ok {
		return true
	}
	return now.Sub(last) >= s.Cooldown
}

// MarkCast records a cast timestamp for the named skill.
func (s *SkillComponent) MarkCast(skillID string, now time.Time) {
	if s == nil {
		return
	}
	if s.LastCast == nil {
		s.LastCast = make(map[string]time.Time)
	}
	s.LastCast[skillID] = now
}

// AIState enumerates the troop controller states.
type AIState uint8

const (
	StateIdle AIState = iota
	StateSeeking
	StateAttacking
	StateRetreating
	StateHealingAlly
)

func (s AIState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSeeking:
		return "SEEKING"
	case StateAttacking:
		return "ATTACKING"
	case StateRetreating:
		return "RETREATING"
	case StateHealingAlly:
		return "HEALING_ALLY"
	default:
		return "UNKNOWN"
	}
}

// TroopAIState is the per-troop controller memory: current state, target,
// and timestamps. Level-triggered, so nothing beyond this is kept.
type TroopAIState struct {
	State      AIState
	TargetID   string
	LastUpdate time.Time
	LastHeal   time.Time
}

// TroopRole distinguishes combat troops from support troops.
type TroopRole uint8

const (
	RoleMelee TroopRole = iota
	RoleRanged
	RoleHealer
)

// Entity is anything positioned and attackable in a match. Kind is closed;
// component pointers are nil when the variant does not carry them.
type Entity struct {
	ID   string
	Kind Kind
	Slot int
	Pos  Vec2
	// SpawnPos is where champions return on respawn.
	SpawnPos Vec2
	Role     TroopRole
	// Bounty is the gold credited to the killer's slot when the entity is
	// destroyed. Only gold mines carry one.
	Bounty int

	Health    *HealthComponent
	Attack    *AttackComponent
	Movement  *MovementComponent
	Attribute *AttributeComponent
	Skill     *SkillComponent
	AI        *TroopAIState
}

// Alive forwards to the health component; entities without one count as
// alive so they stay targetable.
func (e *Entity) Alive() bool {
	if e == nil {
		return false
	}
	if e.Health == nil {
		return true
	}
	return e.Health.Alive()
}

// Defense forwards to the attribute component.
func (e *Entity) Defense() float64 {
	if e == nil {
		return 0
	}
	return e.Attribute.DefenseOf()
}

// CanMove reports whether the entity carries a movement component.
func (e *Entity) CanMove() bool {
	return e != nil && e.Movement != nil
}
