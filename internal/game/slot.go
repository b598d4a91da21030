package game

import (
	"log"
	"sync"
)

// Slot is one player's seat within a match. Slot numbers are stable for the
// match lifetime; entity fields hold non-owning references into the match.
// The gold balance and elimination flag are touched by the income loop, the
// purchase path, and the broadcast loop at once, so they live behind the
// slot's own mutex.
type Slot struct {
	Number     int
	UserID     string
	ChampionID string

	Champion *Entity
	Towers   []*Entity
	Troops   map[string]*Entity

	mu         sync.Mutex
	gold       int
	eliminated bool
}

// NewSlot builds an empty seat.
func NewSlot(number int, userID string) *Slot {
	return &Slot{
		Number: number,
		UserID: userID,
		Troops: make(map[string]*Entity),
	}
}

// Gold returns the current balance.
func (s *Slot) Gold() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gold
}

// AddGold credits the balance and returns the new total. Negative amounts
// are ignored.
func (s *Slot) AddGold(amount int) int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount > 0 {
		s.gold += amount
	}
	return s.gold
}

// SpendGold debits the balance and reports success. Insufficient funds log a
// warning and leave the balance untouched; the balance never goes negative,
// and racing spends can never both succeed against the same funds.
func (s *Slot) SpendGold(amount int) bool {
	if s == nil || amount < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gold < amount {
		log.Printf("game: slot %d cannot spend %d gold, balance %d", s.Number, amount, s.gold)
		return false
	}
	s.gold -= amount
	return true
}

// Eliminate latches the seat as out of the game.
func (s *Slot) Eliminate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eliminated = true
}

// Eliminated reports whether the seat is out of the game.
func (s *Slot) Eliminated() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eliminated
}

// RemoveTower drops a destroyed tower reference.
func (s *Slot) RemoveTower(id string) {
	if s == nil {
		return
	}
	for i, tower := range s.Towers {
		if tower != nil && tower.ID == id {
			s.Towers = append(s.Towers[:i], s.Towers[i+1:]...)
			return
		}
	}
}

// AliveTowers counts towers still standing.
func (s *Slot) AliveTowers() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, tower := range s.Towers {
		if tower.Alive() {
			n++
		}
	}
	return n
}
