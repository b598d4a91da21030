package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func fullRegistry() *Registry {
	r := NewRegistry()
	RegisterServerMessages(r)
	return r
}

func TestFrameRoundTrip(t *testing.T) {
	registry := fullRegistry()

	messages := []Message{
		&Authentication{Token: "tok-123", MatchID: "match-7"},
		&ChooseChampion{ChampionID: "blade-master"},
		&PlayerReady{Ready: true},
		&Ping{ClientTime: 1712345678901},
		&Move{X: 12.5, Y: -3.25},
		&CastSkill{SkillID: "fireball", TargetID: "troop-9", X: 1, Y: 2},
		&Attack{AttackerID: "champ-0", TargetID: "tower-1-0"},
		&TroopSpawn{TroopType: "melee", X: 40, Y: 60},
		&AuthResult{Status: StatusOK, UserID: "user-1", Slot: 2},
		&LobbyState{MatchID: "m", Entries: []LobbyEntry{{Slot: 0, UserID: "u", ChampionID: "c", Ready: true}}},
		&InitialState{MatchID: "m", Tick: 42, Entities: []EntitySnapshot{{EntityID: "e", Kind: 1, Slot: 0, X: 3, Y: 4, Health: 90, MaxHealth: 100}}},
		&PositionUpdate{Tick: 9, Entries: []PositionEntry{{EntityID: "e1", X: 5, Y: 6}, {EntityID: "e2", X: 7, Y: 8}}},
		&HealthUpdate{EntityID: "e1", Health: 55, MaxHealth: 100},
		&EntityDeath{EntityID: "troop-3", KillerID: "champ-0"},
		&Respawn{EntityID: "champ-1", X: 10, Y: 20, Health: 100},
		&GoldUpdate{Slot: 1, Gold: 350},
		&GameOver{WinnerSlot: 3},
		&TroopSpawned{EntityID: "troop-5", TroopType: "healer", Slot: 1, X: 1, Y: 2},
		&TroopCooldown{Slot: 1, TroopType: "melee", ReadyAtUnix: 1700000000},
		&MineSpawned{EntityID: "mine-2", X: 20.5, Y: 20.5, Health: 150, Gold: 100},
		&ErrorNotice{Code: 4, Text: "invalid target"},
		&Pong{ClientTime: 5, ServerTime: 6},
	}

	for _, msg := range messages {
		frame, err := EncodeFrame(msg)
		if err != nil {
			t.Fatalf("encode %T: %v", msg, err)
		}
		decoded, err := DecodeFrame(registry, frame)
		if err != nil {
			t.Fatalf("decode %T: %v", msg, err)
		}
		if !reflect.DeepEqual(msg, decoded) {
			t.Fatalf("round trip mismatch for %T: sent %+v got %+v", msg, msg, decoded)
		}
	}
}

func TestStreamDecoderReadsSequentialFrames(t *testing.T) {
	registry := fullRegistry()

	var stream bytes.Buffer
	enc := NewEncoder(&stream)
	if err := enc.Encode(&Authentication{Token: "t", MatchID: "m"}); err != nil {
		t.Fatalf("encode auth: %v", err)
	}
	if err := enc.Encode(&Move{X: 1, Y: 2}); err != nil {
		t.Fatalf("encode move: %v", err)
	}

	dec := NewDecoder(&stream, registry)
	first, err := dec.Next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if _, ok := first.(*Authentication); !ok {
		t.Fatalf("expected Authentication, got %T", first)
	}
	second, err := dec.Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	move, ok := second.(*Move)
	if !ok {
		t.Fatalf("expected Move, got %T", second)
	}
	if move.X != 1 || move.Y != 2 {
		t.Fatalf("move payload corrupted: %+v", move)
	}
}

func TestDecoderRejectsTruncatedHeader(t *testing.T) {
	registry := fullRegistry()
	dec := NewDecoder(bytes.NewReader([]byte{0, 1, 0}), registry)
	if _, err := dec.Next(); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDecoderRejectsOversizedFrame(t *testing.T) {
	registry := fullRegistry()
	header := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(header[0:2], uint16(TypeMove))
	binary.BigEndian.PutUint32(header[2:6], MaxFrameSize+1)
	dec := NewDecoder(bytes.NewReader(header), registry)
	if _, err := dec.Next(); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestUnknownTypeConsumesFrameAndKeepsStream(t *testing.T) {
	registry := fullRegistry()

	var stream bytes.Buffer
	unknown := make([]byte, HeaderSize+3)
	binary.BigEndian.PutUint16(unknown[0:2], 5555)
	binary.BigEndian.PutUint32(unknown[2:6], 3)
	stream.Write(unknown)
	if err := NewEncoder(&stream).Encode(&Ping{ClientTime: 1}); err != nil {
		t.Fatalf("encode ping: %v", err)
	}

	dec := NewDecoder(&stream, registry)
	if _, err := dec.Next(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	// The unknown frame must not poison the stream.
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("frame after unknown type: %v", err)
	}
	if _, ok := msg.(*Ping); !ok {
		t.Fatalf("expected Ping after unknown frame, got %T", msg)
	}
}

func TestGateRequiresAuthenticationFirst(t *testing.T) {
	gate := NewGate()

	if err := gate.Admit(&Move{X: 1, Y: 1}); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired before handshake, got %v", err)
	}
	if err := gate.Admit(&Authentication{Token: "t"}); err != nil {
		t.Fatalf("authentication frame must pass a closed gate: %v", err)
	}

	gate.Authorize()
	if !gate.Authorized() {
		t.Fatalf("gate should report authorized")
	}
	if err := gate.Admit(&Move{X: 1, Y: 1}); err != nil {
		t.Fatalf("authorized gate must admit everything: %v", err)
	}
}

func TestDecodeFrameRejectsLengthMismatch(t *testing.T) {
	registry := fullRegistry()
	frame, err := EncodeFrame(&Ping{ClientTime: 10})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Declare one byte more than the payload carries.
	binary.BigEndian.PutUint32(frame[2:6], uint32(len(frame)-HeaderSize+1))
	if _, err := DecodeFrame(registry, frame); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}
