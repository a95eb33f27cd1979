package binary

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"

	"github.com/wippyai/swfkit/errors"
)

// Value ranges of the fixed and variable-length encodings.
const (
	MaxU30 = 1<<30 - 1
	MinS24 = -1 << 23
	MaxS24 = 1<<23 - 1
)

// Writer provides buffered writing utilities for SWF/ABC binary encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU16 writes a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32LE writes a little-endian uint32 (fixed 4 bytes).
func (w *Writer) WriteU32LE(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32 writes a variable-length unsigned value using the minimal number
// of groups.
func (w *Writer) WriteU32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// WriteU30 writes a variable-length unsigned value that must fit in 30 bits.
func (w *Writer) WriteU30(v int64) error {
	if v < 0 || v > MaxU30 {
		return errors.Overflow(errors.PhaseEncode, nil, v, "u30")
	}
	w.WriteU32(uint32(v))
	return nil
}

// WriteS32 writes a variable-length signed value. Negative values use the
// five-group u32 pattern, which readers decode to the same value whether or
// not they sign extend. Non-negative values get an extra group when the last
// group has bit 6 set.
func (w *Writer) WriteS32(v int32) {
	if v < 0 {
		w.WriteU32(uint32(v))
		return
	}
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u == 0 && b&0x40 == 0 {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

// WriteS24 writes a 3-byte little-endian two's-complement integer.
func (w *Writer) WriteS24(v int64) error {
	if v < MinS24 || v > MaxS24 {
		return errors.Overflow(errors.PhaseEncode, nil, v, "s24")
	}
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v >> 16))
	return nil
}

// WriteD64 writes a little-endian IEEE 754 double.
func (w *Writer) WriteD64(v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	w.buf.Write(buf[:])
}

// WriteString writes a U30 length-prefixed byte string.
func (w *Writer) WriteString(s string) error {
	if err := w.WriteU30(int64(len(s))); err != nil {
		return err
	}
	w.buf.WriteString(s)
	return nil
}

// WriteCString writes s followed by a NUL terminator.
func (w *Writer) WriteCString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return errors.InvalidInput(errors.PhaseEncode, "string contains NUL byte")
	}
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
	return nil
}
