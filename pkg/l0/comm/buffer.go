package comm

import (
	"encoding/binary"
	"math"
)

// ReportSize is the size of every report in both directions.
const ReportSize = 64

// ByteBuffer is a report with checked, typed access at byte offsets.
type ByteBuffer struct {
	data [ReportSize]byte
}

// NewByteBuffer wraps a copy of b. Bytes past ReportSize are ignored.
func NewByteBuffer(b []byte) *ByteBuffer {
	buf := &ByteBuffer{}
	copy(buf.data[:], b)
	return buf
}

// Bytes returns the underlying report.
func (b *ByteBuffer) Bytes() []byte {
	return b.data[:]
}

// Clear zeroes the report.
func (b *ByteBuffer) Clear() {
	b.data = [ReportSize]byte{}
}

func (b *ByteBuffer) span(off, size int) ([]byte, error) {
	if off < 0 || size < 0 || off+size > ReportSize {
		return nil, &OutOfRangeError{Offset: off, Size: size}
	}
	return b.data[off : off+size], nil
}

// PutByte writes v at off.
func (b *ByteBuffer) PutByte(off int, v byte) error {
	s, err := b.span(off, 1)
	if err == nil {
		s[0] = v
	}
	return err
}

// Byte reads a byte at off.
func (b *ByteBuffer) Byte(off int) (byte, error) {
	s, err := b.span(off, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// PutUint16 writes v at off.
func (b *ByteBuffer) PutUint16(off int, v uint16) error {
	s, err := b.span(off, 2)
	if err == nil {
		binary.LittleEndian.PutUint16(s, v)
	}
	return err
}

// Uint16 reads a uint16 at off.
func (b *ByteBuffer) Uint16(off int) (uint16, error) {
	s, err := b.span(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

// PutFloat32 writes v at off.
func (b *ByteBuffer) PutFloat32(off int, v float32) error {
	s, err := b.span(off, 4)
	if err == nil {
		binary.LittleEndian.PutUint32(s, math.Float32bits(v))
	}
	return err
}

// Float32 reads a float32 at off.
func (b *ByteBuffer) Float32(off int) (float32, error) {
	s, err := b.span(off, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(s)), nil
}

// PutFloats writes vals back to back from off. Nothing is written if they
// don't fit.
func (b *ByteBuffer) PutFloats(off int, vals []float32) error {
	s, err := b.span(off, 4*len(vals))
	if err != nil {
		return err
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(s[4*i:], math.Float32bits(v))
	}
	return nil
}

// Floats reads n float32 values from off.
func (b *ByteBuffer) Floats(off, n int) ([]float32, error) {
	s, err := b.span(off, 4*n)
	if err != nil {
		return nil, err
	}
	vals := make([]float32, n)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(s[4*i:]))
	}
	return vals, nil
}

// PutBytes copies p at off.
func (b *ByteBuffer) PutBytes(off int, p []byte) error {
	s, err := b.span(off, len(p))
	if err == nil {
		copy(s, p)
	}
	return err
}

// Slice returns n bytes from off.
func (b *ByteBuffer) Slice(off, n int) ([]byte, error) {
	s, err := b.span(off, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), s...), nil
}
