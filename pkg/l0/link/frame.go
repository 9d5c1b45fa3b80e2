package link

import (
	"io"
	"time"
)

// Seq is the frame sequence number.
type Seq byte

// NewSeq picks a random starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the following sequence number, skipping reserved values.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid reports whether s is usable on the wire.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame kinds.
const (
	KindReport byte = 0x01
)

// MaxPayload is the largest payload a frame carries.
const MaxPayload = 0x7f

// Frame is one unit on the link.
type Frame struct {
	Seq     Seq
	Kind    byte
	Payload []byte
}

// Bytes encodes the frame.
func (f *Frame) Bytes() []byte {
	b := make([]byte, 3+len(f.Payload))
	b[0], b[1], b[2] = byte(f.Seq), f.Kind, byte(len(f.Payload))
	copy(b[3:], f.Payload)
	return b
}

// WriteTo writes the encoded frame in a single Write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	if len(f.Payload) > MaxPayload {
		return 0, ErrPayloadTooLarge
	}
	n, err := w.Write(f.Bytes())
	return int64(n), err
}
