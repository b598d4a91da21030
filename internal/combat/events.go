package combat

// EventKind discriminates the broadcast events the combat loop produces.
type EventKind uint8

const (
	EventAttack EventKind = iota + 1
	EventHealth
	EventDeath
	EventRespawn
)

// Event is one broadcast-worthy outcome of combat resolution. Events are
// queued per match and drained by the broadcast loop.
type Event struct {
	Kind EventKind

	EntityID string
	// AttackerID is set on attack and death events.
	AttackerID string
	// SkillID is set when the damage came from a skill cast.
	SkillID string

	Health    float64
	MaxHealth float64
	Damage    float64

	X float64
	Y float64
}
