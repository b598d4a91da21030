package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

var errShortPayload = errors.New("short payload")

// payloadWriter accumulates big-endian fields for a message payload.
// Strings are length-prefixed with a uint16.
type payloadWriter struct {
	buf []byte
}

func (w *payloadWriter) uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *payloadWriter) uint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *payloadWriter) uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *payloadWriter) uint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *payloadWriter) int64(v int64) {
	w.uint64(uint64(v))
}

func (w *payloadWriter) float64(v float64) {
	w.uint64(math.Float64bits(v))
}

func (w *payloadWriter) bool(v bool) {
	if v {
		w.uint8(1)
		return
	}
	w.uint8(0)
}

func (w *payloadWriter) string(v string) {
	w.uint16(uint16(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *payloadWriter) bytes() []byte {
	return w.buf
}

// payloadReader consumes big-endian fields with a sticky error, so message
// decoders can read every field and check the error once.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func newPayloadReader(data []byte) *payloadReader {
	return &payloadReader{buf: data}
}

func (r *payloadReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = errShortPayload
		return nil
	}
	out := r.buf[r.off : r.off+n]
	r.off += n
	return out
}

func (r *payloadReader) uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *payloadReader) uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *payloadReader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *payloadReader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *payloadReader) int64() int64 {
	return int64(r.uint64())
}

func (r *payloadReader) float64() float64 {
	return math.Float64frombits(r.uint64())
}

func (r *payloadReader) bool() bool {
	return r.uint8() != 0
}

func (r *payloadReader) string() string {
	n := int(r.uint16())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *payloadReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return errors.New("trailing payload bytes")
	}
	return nil
}
