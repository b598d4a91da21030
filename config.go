package server

import (
	"time"

	"battle-arena/server/internal/ai"
)

// Config carries the tunable engine parameters. Zero values fall back to the
// defaults at construction time.
type Config struct {
	// SimInterval drives movement, combat, and respawn resolution.
	SimInterval time.Duration
	// GoldInterval drives periodic mine income.
	GoldInterval time.Duration
	// AIInterval drives troop decision passes.
	AIInterval time.Duration
	// BroadcastInterval drives the diff broadcast pipeline.
	BroadcastInterval time.Duration
	// SweepInterval drives the empty-match cleanup sweep.
	SweepInterval time.Duration
	// EmptyMatchGrace is how long a match may sit without connections
	// before teardown. Reconnects inside the grace cancel it.
	EmptyMatchGrace time.Duration
	// RespawnDelay is how long a champion stays dead.
	RespawnDelay time.Duration
	// MineRespawnDelay is how long after a gold mine is destroyed before a
	// replacement appears at a random walkable spot.
	MineRespawnDelay time.Duration
	// CommandRateLimit throttles per-entity move/attack commands.
	CommandRateLimit time.Duration
	// GoldPerTick is each slot's base income per gold tick.
	GoldPerTick int
	// AllowGuests admits guest tokens at the handshake.
	AllowGuests bool

	AI ai.Config
}

// DefaultConfig returns the standard engine parameters.
func DefaultConfig() Config {
	return Config{
		SimInterval:       33 * time.Millisecond,
		GoldInterval:      time.Second,
		AIInterval:        time.Second,
		BroadcastInterval: 33 * time.Millisecond,
		SweepInterval:     10 * time.Second,
		EmptyMatchGrace:   30 * time.Second,
		RespawnDelay:      3 * time.Second,
		MineRespawnDelay:  30 * time.Second,
		CommandRateLimit:  50 * time.Millisecond,
		GoldPerTick:       5,
		AllowGuests:       true,
		AI:                ai.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SimInterval <= 0 {
		c.SimInterval = def.SimInterval
	}
	if c.GoldInterval <= 0 {
		c.GoldInterval = def.GoldInterval
	}
	if c.AIInterval <= 0 {
		c.AIInterval = def.AIInterval
	}
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = def.BroadcastInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.EmptyMatchGrace <= 0 {
		c.EmptyMatchGrace = def.EmptyMatchGrace
	}
	if c.RespawnDelay <= 0 {
		c.RespawnDelay = def.RespawnDelay
	}
	if c.MineRespawnDelay <= 0 {
		c.MineRespawnDelay = def.MineRespawnDelay
	}
	if c.CommandRateLimit <= 0 {
		c.CommandRateLimit = def.CommandRateLimit
	}
	if c.GoldPerTick <= 0 {
		c.GoldPerTick = def.GoldPerTick
	}
	if c.AI.Sight <= 0 {
		c.AI = def.AI
	}
	return c
}
