// Package combat resolves attacks and skill casts against match entities:
// range and cooldown gating, pluggable damage mitigation, type-specific
// death handling, and deferred champion respawn.
package combat

import (
	"log"
	"sync"
	"time"

	"battle-arena/server/internal/game"
)

// AttackContext is the per-attacker pursuit state. While live, the attacker
// follows the target between ticks and swings whenever range and cooldown
// allow.
type AttackContext struct {
	MatchID    string
	AttackerID string
	TargetID   string
	StartedAt  time.Time
}

type pendingRespawn struct {
	entityID string
	dueAt    time.Time
}

// Service owns all transient combat state across matches: attack contexts,
// deferred respawns, and the per-match broadcast event queues.
type Service struct {
	mu       sync.Mutex
	contexts map[string]map[string]*AttackContext
	respawns map[string][]pendingRespawn
	events   map[string][]Event

	respawnDelay time.Duration
}

// NewService builds a combat service. respawnDelay is how long a champion
// stays dead before returning at its spawn position.
func NewService(respawnDelay time.Duration) *Service {
	return &Service{
		contexts:     make(map[string]map[string]*AttackContext),
		respawns:     make(map[string][]pendingRespawn),
		events:       make(map[string][]Event),
		respawnDelay: respawnDelay,
	}
}

// SetAttack validates and stores an attack intent, then sticks the attacker
// to the target so it pursues between ticks. Invalid or rate-limited intents
// are dropped with a log line.
func (s *Service) SetAttack(m *game.Match, attackerID, targetID string, now time.Time) bool {
	if m == nil || attackerID == targetID {
		return false
	}
	if !m.AllowCommand(attackerID, now) {
		return false
	}
	attacker, ok := m.EntityByID(attackerID)
	if !ok || attacker.Attack == nil || !attacker.Alive() {
		log.Printf("combat: invalid attacker %s in match %s", attackerID, m.ID)
		return false
	}
	target, ok := m.EntityByID(targetID)
	if !ok || target.Health == nil || !target.Alive() {
		log.Printf("combat: invalid target %s in match %s", targetID, m.ID)
		return false
	}

	s.mu.Lock()
	byAttacker := s.contexts[m.ID]
	if byAttacker == nil {
		byAttacker = make(map[string]*AttackContext)
		s.contexts[m.ID] = byAttacker
	}
	byAttacker[attackerID] = &AttackContext{
		MatchID:    m.ID,
		AttackerID: attackerID,
		TargetID:   targetID,
		StartedAt:  now,
	}
	s.mu.Unlock()

	if attacker.CanMove() {
		m.SetMove(attackerID, target.Pos, now)
	}
	return true
}

// StopAttack clears the attacker's pursuit state. Manual movement calls this
// so a player command always supersedes the follow behavior.
func (s *Service) StopAttack(matchID, attackerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byAttacker := s.contexts[matchID]; byAttacker != nil {
		delete(byAttacker, attackerID)
	}
}

// ProcessAttacks runs one combat tick for a match: every live attack context
// either swings, keeps pursuing, or is discarded when its endpoints are gone.
// Troop corpses are removed at the end of the tick.
func (s *Service) ProcessAttacks(m *game.Match, now time.Time) {
	if m == nil {
		return
	}

	s.mu.Lock()
	byAttacker := s.contexts[m.ID]
	pending := make([]*AttackContext, 0, len(byAttacker))
	for _, ctx := range byAttacker {
		pending = append(pending, ctx)
	}
	s.mu.Unlock()

	var deadTroops []string
	for _, ctx := range pending {
		attacker, ok := m.EntityByID(ctx.AttackerID)
		if !ok || attacker.Attack == nil || !attacker.Alive() {
			s.StopAttack(m.ID, ctx.AttackerID)
			continue
		}
		target, ok := m.EntityByID(ctx.TargetID)
		if !ok || !target.Alive() {
			s.unstick(m, attacker)
			continue
		}

		if game.Distance(attacker.Pos, target.Pos) > attacker.Attack.Range {
			// Out of range: keep following the target's latest position.
			if attacker.CanMove() {
				m.SetMove(attacker.ID, target.Pos, now)
			}
			continue
		}
		m.StopMovement(attacker.ID)
		if !attacker.Attack.Ready(now) {
			continue
		}

		attacker.Attack.LastAttack = now
		damage := attacker.Attack.ComputeDamage(target.Defense())
		s.queue(m.ID, Event{
			Kind:       EventAttack,
			EntityID:   target.ID,
			AttackerID: attacker.ID,
			Damage:     damage,
		})
		if died := s.applyDamage(m, attacker.ID, target, damage, now); died {
			s.unstick(m, attacker)
			if target.Kind == game.KindTroop {
				deadTroops = append(deadTroops, target.ID)
			}
		}
	}

	for _, id := range deadTroops {
		s.removeTroop(m, id)
	}
}

// CastSkill resolves an explicit skill cast: cooldown gate, pluggable
// mitigation, and the same health-update and death contract as attacks.
// An empty targetID is a point cast: every hostile entity within the skill's
// radius of the point takes the hit.
func (s *Service) CastSkill(m *game.Match, casterID, skillID, targetID string, at game.Vec2, now time.Time) bool {
	if m == nil {
		return false
	}
	if !m.AllowCommand(casterID, now) {
		return false
	}
	caster, ok := m.EntityByID(casterID)
	if !ok || caster.Skill == nil || !caster.Alive() {
		log.Printf("combat: invalid caster %s in match %s", casterID, m.ID)
		return false
	}
	if !caster.Skill.Ready(skillID, now) {
		return false
	}
	if targetID == "" {
		return s.castAtPoint(m, caster, skillID, at, now)
	}
	target, ok := m.EntityByID(targetID)
	if !ok || target.Health == nil || !target.Alive() {
		log.Printf("combat: invalid skill target %s in match %s", targetID, m.ID)
		return false
	}

	caster.Skill.MarkCast(skillID, now)
	damage := s.skillDamage(caster, target)
	s.queue(m.ID, Event{
		Kind:       EventAttack,
		EntityID:   target.ID,
		AttackerID: caster.ID,
		SkillID:    skillID,
		Damage:     damage,
	})
	if died := s.applyDamage(m, caster.ID, target, damage, now); died && target.Kind == game.KindTroop {
		s.removeTroop(m, target.ID)
	}
	return true
}

// castAtPoint damages every hostile entity within the skill radius of the
// point. The cooldown is spent even when nothing stands in the area.
func (s *Service) castAtPoint(m *game.Match, caster *game.Entity, skillID string, at game.Vec2, now time.Time) bool {
	radius := caster.Skill.Radius
	if radius <= 0 {
		log.Printf("combat: skill %s of %s cannot target a point", skillID, caster.ID)
		return false
	}
	caster.Skill.MarkCast(skillID, now)

	var deadTroops []string
	for _, target := range m.Entities() {
		if target.ID == caster.ID || target.Slot == caster.Slot {
			continue
		}
		if target.Health == nil || !target.Alive() {
			continue
		}
		if game.Distance(target.Pos, at) > radius {
			continue
		}
		damage := s.skillDamage(caster, target)
		s.queue(m.ID, Event{
			Kind:       EventAttack,
			EntityID:   target.ID,
			AttackerID: caster.ID,
			SkillID:    skillID,
			Damage:     damage,
		})
		if died := s.applyDamage(m, caster.ID, target, damage, now); died && target.Kind == game.KindTroop {
			deadTroops = append(deadTroops, target.ID)
		}
	}
	for _, id := range deadTroops {
		s.removeTroop(m, id)
	}
	return true
}

func (s *Service) skillDamage(caster, target *game.Entity) float64 {
	mitigate := caster.Skill.Mitigation
	if mitigate == nil {
		mitigate = game.LinearMitigation
	}
	return mitigate(caster.Skill.Power, target.Defense())
}

// applyDamage decreases the target's health, queues the health update, and
// on the death transition runs the kind-specific handler. Returns whether
// this call killed the target.
func (s *Service) applyDamage(m *game.Match, attackerID string, target *game.Entity, damage float64, now time.Time) bool {
	remaining, died := target.Health.ApplyDamage(damage)
	s.queue(m.ID, Event{
		Kind:      EventHealth,
		EntityID:  target.ID,
		Health:    remaining,
		MaxHealth: target.Health.Max(),
	})
	if !died {
		return false
	}

	s.queue(m.ID, Event{
		Kind:       EventDeath,
		EntityID:   target.ID,
		AttackerID: attackerID,
	})
	s.StopAttack(m.ID, target.ID)

	switch target.Kind {
	case game.KindTower:
		m.RemoveEntity(target.ID)
		if slot, ok := m.SlotByNumber(target.Slot); ok {
			slot.RemoveTower(target.ID)
		}
	case game.KindChampion:
		m.StopMovement(target.ID)
		s.mu.Lock()
		s.respawns[m.ID] = append(s.respawns[m.ID], pendingRespawn{
			entityID: target.ID,
			dueAt:    now.Add(s.respawnDelay),
		})
		s.mu.Unlock()
	case game.KindTroop:
		// Removed at end of tick by the caller.
	case game.KindGoldMine:
		m.RemoveEntity(target.ID)
		s.awardBounty(m, attackerID, target.Bounty)
	}
	return true
}

// awardBounty credits a destroyed entity's gold to the killer's slot.
func (s *Service) awardBounty(m *game.Match, attackerID string, bounty int) {
	if bounty <= 0 {
		return
	}
	attacker, ok := m.EntityByID(attackerID)
	if !ok {
		return
	}
	if slot, ok := m.SlotByNumber(attacker.Slot); ok {
		slot.AddGold(bounty)
	}
}

// unstick clears the attacker's context and stops it where it stands.
func (s *Service) unstick(m *game.Match, attacker *game.Entity) {
	s.StopAttack(m.ID, attacker.ID)
	m.StopMovement(attacker.ID)
}

func (s *Service) removeTroop(m *game.Match, id string) {
	removed := m.RemoveEntity(id)
	if removed == nil {
		return
	}
	if slot, ok := m.SlotByNumber(removed.Slot); ok {
		delete(slot.Troops, id)
	}
}

// ProcessRespawns revives champions whose delay has elapsed: full health,
// back at the spawn position, with a respawn event queued.
func (s *Service) ProcessRespawns(m *game.Match, now time.Time) {
	if m == nil {
		return
	}
	s.mu.Lock()
	queue := s.respawns[m.ID]
	var due []pendingRespawn
	var remaining []pendingRespawn
	for _, r := range queue {
		if now.Before(r.dueAt) {
			remaining = append(remaining, r)
		} else {
			due = append(due, r)
		}
	}
	s.respawns[m.ID] = remaining
	s.mu.Unlock()

	for _, r := range due {
		e, ok := m.EntityByID(r.entityID)
		if !ok || e.Health == nil {
			continue
		}
		restored := e.Health.Restore()
		m.SetPosition(e.ID, e.SpawnPos)
		s.queue(m.ID, Event{
			Kind:      EventRespawn,
			EntityID:  e.ID,
			Health:    restored,
			MaxHealth: e.Health.Max(),
			X:         e.SpawnPos.X,
			Y:         e.SpawnPos.Y,
		})
	}
}

// RecordHeal queues a health update for a target healed outside the damage
// path, such as by a healer troop.
func (s *Service) RecordHeal(matchID string, target *game.Entity) {
	if target == nil || target.Health == nil {
		return
	}
	current, max := target.Health.Snapshot()
	s.queue(matchID, Event{
		Kind:      EventHealth,
		EntityID:  target.ID,
		Health:    current,
		MaxHealth: max,
	})
}

// Drain returns and clears the match's queued broadcast events.
func (s *Service) Drain(matchID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events[matchID]
	if len(events) == 0 {
		return nil
	}
	delete(s.events, matchID)
	return events
}

// ReleaseMatch drops every piece of transient state for a torn-down match.
func (s *Service) ReleaseMatch(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, matchID)
	delete(s.respawns, matchID)
	delete(s.events, matchID)
}

func (s *Service) queue(matchID string, ev Event) {
	s.mu.Lock()
	s.events[matchID] = append(s.events[matchID], ev)
	s.mu.Unlock()
}
