// Package wire implements the TLV framing used on every game connection:
// a big-endian uint16 type code, a big-endian uint32 payload length, then
// the payload bytes. Each message type owns its payload encoding.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the fixed frame header length in bytes.
	HeaderSize = 6

	// MaxFrameSize caps the payload length accepted by the decoder.
	MaxFrameSize = 64 * 1024
)

var (
	// ErrMalformedFrame reports a truncated header or an oversized length field.
	ErrMalformedFrame = errors.New("wire: malformed frame")
	// ErrUnknownType reports a type code with no registered constructor. The
	// frame is consumed; the connection must survive.
	ErrUnknownType = errors.New("wire: unknown message type")
	// ErrAuthRequired reports a non-authentication frame arriving before the
	// authentication gate has been removed.
	ErrAuthRequired = errors.New("wire: authentication required")
)

// Type identifies a message on the wire.
type Type uint16

// Message is anything that can travel inside a TLV frame.
type Message interface {
	WireType() Type
	MarshalPayload() ([]byte, error)
	UnmarshalPayload(data []byte) error
}

// Registry maps inbound type codes to message constructors.
type Registry struct {
	constructors map[Type]func() Message
}

// NewRegistry returns a registry pre-populated with every client message type.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[Type]func() Message)}
	registerClientMessages(r)
	return r
}

// Register installs a constructor for the given type code.
func (r *Registry) Register(t Type, ctor func() Message) {
	r.constructors[t] = ctor
}

// New builds an empty message for the given type code.
func (r *Registry) New(t Type) (Message, bool) {
	ctor, ok := r.constructors[t]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// EncodeFrame renders a message into a complete TLV frame.
func EncodeFrame(msg Message) ([]byte, error) {
	payload, err := msg.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("wire: encode type %d: %w", msg.WireType(), err)
	}
	if len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("%w: payload %d exceeds %d", ErrMalformedFrame, len(payload), MaxFrameSize)
	}
	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint16(frame[0:2], uint16(msg.WireType()))
	binary.BigEndian.PutUint32(frame[2:6], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// DecodeFrame parses one complete frame held in memory, as delivered by
// message-oriented transports (websocket binary messages).
func DecodeFrame(registry *Registry, frame []byte) (Message, error) {
	if len(frame) < HeaderSize {
		return nil, fmt.Errorf("%w: frame %d bytes, want at least %d", ErrMalformedFrame, len(frame), HeaderSize)
	}
	t := Type(binary.BigEndian.Uint16(frame[0:2]))
	length := binary.BigEndian.Uint32(frame[2:6])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d", ErrMalformedFrame, length, MaxFrameSize)
	}
	if uint32(len(frame)-HeaderSize) != length {
		return nil, fmt.Errorf("%w: declared length %d, got %d payload bytes", ErrMalformedFrame, length, len(frame)-HeaderSize)
	}
	return decodePayload(registry, t, frame[HeaderSize:])
}

// Decoder reads TLV frames from a stream transport.
type Decoder struct {
	r        io.Reader
	registry *Registry
	header   [HeaderSize]byte
}

// NewDecoder wraps a stream with frame decoding against the given registry.
func NewDecoder(r io.Reader, registry *Registry) *Decoder {
	return &Decoder{r: r, registry: registry}
}

// Next reads the next frame. It returns ErrUnknownType for unrecognized type
// codes after consuming the payload, so callers can log and continue reading.
// io.EOF is returned unwrapped on a clean connection close at a frame
// boundary; a partial header yields ErrMalformedFrame.
func (d *Decoder) Next() (Message, error) {
	if _, err := io.ReadFull(d.r, d.header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: short header: %v", ErrMalformedFrame, err)
	}
	t := Type(binary.BigEndian.Uint16(d.header[0:2]))
	length := binary.BigEndian.Uint32(d.header[2:6])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d", ErrMalformedFrame, length, MaxFrameSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, fmt.Errorf("%w: short payload for type %d: %v", ErrMalformedFrame, t, err)
	}
	return decodePayload(d.registry, t, payload)
}

func decodePayload(registry *Registry, t Type, payload []byte) (Message, error) {
	msg, ok := registry.New(t)
	if !ok {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownType, t)
	}
	if err := msg.UnmarshalPayload(payload); err != nil {
		return nil, fmt.Errorf("%w: type %d: %v", ErrMalformedFrame, t, err)
	}
	return msg, nil
}

// Encoder writes TLV frames to a stream transport. Callers serialize access.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps a stream with frame encoding.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode frames and writes one message as a single Write call.
func (e *Encoder) Encode(msg Message) error {
	frame, err := EncodeFrame(msg)
	if err != nil {
		return err
	}
	_, err = e.w.Write(frame)
	return err
}
