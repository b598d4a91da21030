package wire

// Client (inbound) type codes. The numbering follows the original wire
// contract so existing clients keep working.
const (
	TypeAuthentication Type = 1
	TypeChooseChampion Type = 6
	TypePlayerReady    Type = 8
	TypePing           Type = 15
	TypeMove           Type = 19
	TypeCastSkill      Type = 24
	TypeAttack         Type = 100
	TypeTroopSpawn     Type = 200
)

func registerClientMessages(r *Registry) {
	r.Register(TypeAuthentication, func() Message { return &Authentication{} })
	r.Register(TypeChooseChampion, func() Message { return &ChooseChampion{} })
	r.Register(TypePlayerReady, func() Message { return &PlayerReady{} })
	r.Register(TypePing, func() Message { return &Ping{} })
	r.Register(TypeMove, func() Message { return &Move{} })
	r.Register(TypeCastSkill, func() Message { return &CastSkill{} })
	r.Register(TypeAttack, func() Message { return &Attack{} })
	r.Register(TypeTroopSpawn, func() Message { return &TroopSpawn{} })
}

// Authentication must be the first frame on every connection. It carries the
// credential token and the match the client wants to join.
type Authentication struct {
	Token   string
	MatchID string
}

func (m *Authentication) WireType() Type { return TypeAuthentication }

func (m *Authentication) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.Token)
	w.string(m.MatchID)
	return w.bytes(), nil
}

func (m *Authentication) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Token = r.string()
	m.MatchID = r.string()
	return r.finish()
}

// ChooseChampion records the player's champion pick during the lobby phase.
type ChooseChampion struct {
	ChampionID string
}

func (m *ChooseChampion) WireType() Type { return TypeChooseChampion }

func (m *ChooseChampion) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.ChampionID)
	return w.bytes(), nil
}

func (m *ChooseChampion) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.ChampionID = r.string()
	return r.finish()
}

// PlayerReady toggles the player's lobby readiness flag.
type PlayerReady struct {
	Ready bool
}

func (m *PlayerReady) WireType() Type { return TypePlayerReady }

func (m *PlayerReady) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.bool(m.Ready)
	return w.bytes(), nil
}

func (m *PlayerReady) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.Ready = r.bool()
	return r.finish()
}

// Ping carries the client clock for RTT measurement and liveness.
type Ping struct {
	ClientTime int64
}

func (m *Ping) WireType() Type { return TypePing }

func (m *Ping) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.int64(m.ClientTime)
	return w.bytes(), nil
}

func (m *Ping) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.ClientTime = r.int64()
	return r.finish()
}

// Move requests movement of the player's champion to a world position.
type Move struct {
	X float64
	Y float64
}

func (m *Move) WireType() Type { return TypeMove }

func (m *Move) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.float64(m.X)
	w.float64(m.Y)
	return w.bytes(), nil
}

func (m *Move) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.X = r.float64()
	m.Y = r.float64()
	return r.finish()
}

// CastSkill triggers the champion's skill against a target entity or point.
// TargetID is empty for point casts.
type CastSkill struct {
	SkillID  string
	TargetID string
	X        float64
	Y        float64
}

func (m *CastSkill) WireType() Type { return TypeCastSkill }

func (m *CastSkill) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.SkillID)
	w.string(m.TargetID)
	w.float64(m.X)
	w.float64(m.Y)
	return w.bytes(), nil
}

func (m *CastSkill) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.SkillID = r.string()
	m.TargetID = r.string()
	m.X = r.float64()
	m.Y = r.float64()
	return r.finish()
}

// Attack declares an attack intent from one owned entity against a target.
// AttackerID may name the champion or one of the player's troops.
type Attack struct {
	AttackerID string
	TargetID   string
}

func (m *Attack) WireType() Type { return TypeAttack }

func (m *Attack) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.AttackerID)
	w.string(m.TargetID)
	return w.bytes(), nil
}

func (m *Attack) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.AttackerID = r.string()
	m.TargetID = r.string()
	return r.finish()
}

// TroopSpawn requests spawning a troop of the given type near a position.
type TroopSpawn struct {
	TroopType string
	X         float64
	Y         float64
}

func (m *TroopSpawn) WireType() Type { return TypeTroopSpawn }

func (m *TroopSpawn) MarshalPayload() ([]byte, error) {
	var w payloadWriter
	w.string(m.TroopType)
	w.float64(m.X)
	w.float64(m.Y)
	return w.bytes(), nil
}

func (m *TroopSpawn) UnmarshalPayload(data []byte) error {
	r := newPayloadReader(data)
	m.TroopType = r.string()
	m.X = r.float64()
	m.Y = r.float64()
	return r.finish()
}
