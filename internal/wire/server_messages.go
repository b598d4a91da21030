package wire

// Server (outbound) type codes.
const (
	TypeError           Type = 0
	TypeAuthResult      Type = 2
	TypeLobbyState      Type = 9
	TypeInitialState    Type = 11
	TypePong            Type = 16
	TypePositionUpdate  Type = 20
	TypeAttackAnimation Type = 104
	TypeHealthUpdate    Type = 105
	TypeEntityDeath     Type = 106
	TypeRespawn         Type = 107
	TypeGoldUpdate      Type = 110
	TypeGameOver        Type = 120
	TypeTroopSpawned    Type = 201
	TypeTroopCooldown   Type = 202
	TypeMineSpawned     Type = 203
)

// RegisterServerMessages installs outbound constructors, used by test clients
// and bots that decode server traffic.
func RegisterServerMessages(r *Registry) {
	r.Register(TypeError, func() Message { return &ErrorNotice{} })
	r.Register(TypeAuthResult, func() Message { return &AuthResult{} })
	r.Register(TypeLobbyState, func() Message { return &LobbyState{} })
	r.Register(TypeInitialState, func() Message { return &InitialState{} })
	r.Register(TypePong, func() Message { return &Pong{} })
	r.Register(TypePositionUpdate, func() Message { return &PositionUpdate{} })
	r.Register(TypeAttackAnimation, func() Message { return &AttackAnimation{} })
	r.Register(TypeHealthUpdate, func() Message { return &HealthUpdate{} })
	r.Register(TypeEntityDeath, func() Message { return &EntityDeath{} })
	r.Register(TypeRespawn, func() Message { return &Respawn{} })
	r.Register(TypeGoldUpdate, func() Message { return &GoldUpdate{} })
	r.Register(TypeGameOver, func() Message { return &GameOver{} })
	r.Register(TypeTroopSpawned, func() Message { return &TroopSpawned{} })
	r.Register(TypeTroopCooldown, func() Message { return &TroopCooldown{} })
	r.Register(TypeMineSpawned, func() Message { return &MineSpawned{} })
}

// Status codes carried by AuthResult and ErrorNotice.
const (
	StatusOK           uint8 = 0
	StatusAuthFailed   uint8 = 1
	StatusUnknownMatch uint8 = 2
	StatusSlotTaken    uint8 = 3
)

// ErrorNotice reports a message-level failure to the client.
type ErrorNotice struct {
	Code uint16
	Text string
}

func (m *ErrorNotice) WireType() Type { return TypeError }

func (m *ErrorNotice) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.uint16(m.Code)
	w.string(m.Text)
	return w.bytes(), nil
}

func (m *ErrorNotice) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Code = r.uint16()
	m.Text = r.string()
	return r.finish()
}

// AuthResult answers the authentication handshake.
type AuthResult struct {
	Status uint8
	UserID string
	Slot   uint8
	Reason string
}

func (m *AuthResult) WireType() Type { return TypeAuthResult }

func (m *AuthResult) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.uint8(m.Status)
	w.string(m.UserID)
	w.uint8(m.Slot)
	w.string(m.Reason)
	return w.bytes(), nil
}

func (m *AuthResult) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Status = r.uint8()
	m.UserID = r.string()
	m.Slot = r.uint8()
	m.Reason = r.string()
	return r.finish()
}

// LobbyEntry describes one seat in the pre-game lobby.
type LobbyEntry struct {
	Slot       uint8
	UserID     string
	ChampionID string
	Ready      bool
}

// LobbyState broadcasts the current lobby composition.
type LobbyState struct {
	MatchID string
	Entries []LobbyEntry
}

func (m *LobbyState) WireType() Type { return TypeLobbyState }

func (m *LobbyState) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.MatchID)
	w.uint16(uint16(len(m.Entries)))
	for _, e := range m.Entries {
		w.uint8(e.Slot)
		w.string(e.UserID)
		w.string(e.ChampionID)
		w.bool(e.Ready)
	}
	return w.bytes(), nil
}

func (m *LobbyState) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.MatchID = r.string()
	n := int(r.uint16())
	m.Entries = make([]LobbyEntry, 0, n)
	for i := 0; i < n; i++ {
		m.Entries = append(m.Entries, LobbyEntry{
			Slot:       r.uint8(),
			UserID:     r.string(),
			ChampionID: r.string(),
			Ready:      r.bool(),
		})
	}
	return r.finish()
}

// EntitySnapshot is the full description of one entity at match start.
type EntitySnapshot struct {
	EntityID  string
	Kind      uint8
	Slot      uint8
	X         float64
	Y         float64
	Health    float64
	MaxHealth float64
}

// InitialState seeds the client with the complete match state.
type InitialState struct {
	MatchID  string
	Tick     uint64
	Entities []EntitySnapshot
}

func (m *InitialState) WireType() Type { return TypeInitialState }

func (m *InitialState) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.MatchID)
	w.uint64(m.Tick)
	w.uint16(uint16(len(m.Entities)))
	for _, e := range m.Entities {
		w.string(e.EntityID)
		w.uint8(e.Kind)
		w.uint8(e.Slot)
		w.float64(e.X)
		w.float64(e.Y)
		w.float64(e.Health)
		w.float64(e.MaxHealth)
	}
	return w.bytes(), nil
}

func (m *InitialState) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.MatchID = r.string()
	m.Tick = r.uint64()
	n := int(r.uint16())
	m.Entities = make([]EntitySnapshot, 0, n)
	for i := 0; i < n; i++ {
		m.Entities = append(m.Entities, EntitySnapshot{
			EntityID:  r.string(),
			Kind:      r.uint8(),
			Slot:      r.uint8(),
			X:         r.float64(),
			Y:         r.float64(),
			Health:    r.float64(),
			MaxHealth: r.float64(),
		})
	}
	return r.finish()
}

// Pong answers a Ping with both clocks.
type Pong struct {
	ClientTime int64
	ServerTime int64
}

func (m *Pong) WireType() Type { return TypePong }

func (m *Pong) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.int64(m.ClientTime)
	w.int64(m.ServerTime)
	return w.bytes(), nil
}

func (m *Pong) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.ClientTime = r.int64()
	m.ServerTime = r.int64()
	return r.finish()
}

// PositionEntry is one entity's interpolated position.
type PositionEntry struct {
	EntityID string
	X        float64
	Y        float64
}

// PositionUpdate streams the positions that changed since the last broadcast.
type PositionUpdate struct {
	Tick    uint64
	Entries []PositionEntry
}

func (m *PositionUpdate) WireType() Type { return TypePositionUpdate }

func (m *PositionUpdate) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.uint64(m.Tick)
	w.uint16(uint16(len(m.Entries)))
	for _, e := range m.Entries {
		w.string(e.EntityID)
		w.float64(e.X)
		w.float64(e.Y)
	}
	return w.bytes(), nil
}

func (m *PositionUpdate) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Tick = r.uint64()
	n := int(r.uint16())
	m.Entries = make([]PositionEntry, 0, n)
	for i := 0; i < n; i++ {
		m.Entries = append(m.Entries, PositionEntry{
			EntityID: r.string(),
			X:        r.float64(),
			Y:        r.float64(),
		})
	}
	return r.finish()
}

// AttackAnimation tells clients to play an attack from attacker to target.
type AttackAnimation struct {
	AttackerID string
	TargetID   string
}

func (m *AttackAnimation) WireType() Type { return TypeAttackAnimation }

func (m *AttackAnimation) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.AttackerID)
	w.string(m.TargetID)
	return w.bytes(), nil
}

func (m *AttackAnimation) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.AttackerID = r.string()
	m.TargetID = r.string()
	return r.finish()
}

// HealthUpdate reports a target's health after damage or healing.
type HealthUpdate struct {
	EntityID  string
	Health    float64
	MaxHealth float64
}

func (m *HealthUpdate) WireType() Type { return TypeHealthUpdate }

func (m *HealthUpdate) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.EntityID)
	w.float64(m.Health)
	w.float64(m.MaxHealth)
	return w.bytes(), nil
}

func (m *HealthUpdate) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.EntityID = r.string()
	m.Health = r.float64()
	m.MaxHealth = r.float64()
	return r.finish()
}

// EntityDeath announces that an entity died.
type EntityDeath struct {
	EntityID string
	KillerID string
}

func (m *EntityDeath) WireType() Type { return TypeEntityDeath }

func (m *EntityDeath) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.EntityID)
	w.string(m.KillerID)
	return w.bytes(), nil
}

func (m *EntityDeath) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.EntityID = r.string()
	m.KillerID = r.string()
	return r.finish()
}

// Respawn announces a champion returning at its spawn position.
type Respawn struct {
	EntityID string
	X        float64
	Y        float64
	Health   float64
}

func (m *Respawn) WireType() Type { return TypeRespawn }

func (m *Respawn) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.EntityID)
	w.float64(m.X)
	w.float64(m.Y)
	w.float64(m.Health)
	return w.bytes(), nil
}

func (m *Respawn) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.EntityID = r.string()
	m.X = r.float64()
	m.Y = r.float64()
	m.Health = r.float64()
	return r.finish()
}

// GoldUpdate reports a slot's gold balance.
type GoldUpdate struct {
	Slot uint8
	Gold int64
}

func (m *GoldUpdate) WireType() Type { return TypeGoldUpdate }

func (m *GoldUpdate) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.uint8(m.Slot)
	w.int64(m.Gold)
	return w.bytes(), nil
}

func (m *GoldUpdate) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Slot = r.uint8()
	m.Gold = r.int64()
	return r.finish()
}

// GameOver declares the winning slot.
type GameOver struct {
	WinnerSlot uint8
}

func (m *GameOver) WireType() Type { return TypeGameOver }

func (m *GameOver) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.uint8(m.WinnerSlot)
	return w.bytes(), nil
}

func (m *GameOver) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.WinnerSlot = r.uint8()
	return r.finish()
}

// TroopSpawned announces a new troop entering the match.
type TroopSpawned struct {
	EntityID  string
	TroopType string
	Slot      uint8
	X         float64
	Y         float64
}

func (m *TroopSpawned) WireType() Type { return TypeTroopSpawned }

func (m *TroopSpawned) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.EntityID)
	w.string(m.TroopType)
	w.uint8(m.Slot)
	w.float64(m.X)
	w.float64(m.Y)
	return w.bytes(), nil
}

func (m *TroopSpawned) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.EntityID = r.string()
	m.TroopType = r.string()
	m.Slot = r.uint8()
	m.X = r.float64()
	m.Y = r.float64()
	return r.finish()
}

// TroopCooldown tells a player when their next troop spawn unlocks.
type TroopCooldown struct {
	Slot        uint8
	TroopType   string
	ReadyAtUnix int64
}

func (m *TroopCooldown) WireType() Type { return TypeTroopCooldown }

func (m *TroopCooldown) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.uint8(m.Slot)
	w.string(m.TroopType)
	w.int64(m.ReadyAtUnix)
	return w.bytes(), nil
}

func (m *TroopCooldown) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Slot = r.uint8()
	m.TroopType = r.string()
	m.ReadyAtUnix = r.int64()
	return r.finish()
}

// MineSpawned announces a fresh gold mine entering the arena.
type MineSpawned struct {
	EntityID string
	X        float64
	Y        float64
	Health   float64
	Gold     int64
}

func (m *MineSpawned) WireType() Type { return TypeMineSpawned }

func (m *MineSpawned) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.EntityID)
	w.float64(m.X)
	w.float64(m.Y)
	w.float64(m.Health)
	w.int64(m.Gold)
	return w.bytes(), nil
}

func (m *MineSpawned) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.EntityID = r.string()
	m.X = r.float64()
	m.Y = r.float64()
	m.Health = r.float64()
	m.Gold = r.int64()
	return r.finish()
}
