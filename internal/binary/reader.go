package binary

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/wippyai/swfkit/errors"
)

// Reader is a bounds-checked cursor over an in-memory buffer with the
// SWF/ABC primitive reads. All multi-byte fixed-width values are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Reset seeks to the given position.
func (r *Reader) Reset(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return errors.UnexpectedEnd(errors.PhaseDecode, pos, 0, len(r.data)-pos)
	}
	r.pos = pos
	return nil
}

// Span returns the bytes between start and the current position.
func (r *Reader) Span(start int) []byte {
	if start < 0 || start > r.pos {
		return nil
	}
	out := make([]byte, r.pos-start)
	copy(out, r.data[start:r.pos])
	return out
}

func (r *Reader) need(n int) error {
	if n < 0 || r.Len() < n {
		return errors.UnexpectedEnd(errors.PhaseDecode, r.pos, n, r.Len())
	}
	return nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The result is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	copy(buf, r.data[r.pos:r.pos+n])
	r.pos += n
	return buf, nil
}

// ReadU8 reads an unsigned 8-bit integer.
func (r *Reader) ReadU8() (uint8, error) {
	return r.ReadByte()
}

// ReadS8 reads a signed 8-bit integer.
func (r *Reader) ReadS8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadS24 reads a 3-byte little-endian two's-complement integer.
func (r *Reader) ReadS24() (int32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	b := r.data[r.pos : r.pos+3]
	r.pos += 3
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend
	if v&0x800000 != 0 {
		v |= ^int32(0) << 24
	}
	return v, nil
}

// ReadU32 reads a variable-length unsigned value of at most five groups.
func (r *Reader) ReadU32() (uint32, error) {
	start := r.pos
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			r.pos = start
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if result > math.MaxUint32 {
				r.pos = start
				return 0, r.overflow(result, "u32")
			}
			return uint32(result), nil
		}
		shift += 7
		if shift >= 35 {
			r.pos = start
			return 0, r.overflow(result, "u32")
		}
	}
}

// ReadU30 reads a variable-length unsigned value that must fit in 30 bits.
func (r *Reader) ReadU30() (uint32, error) {
	start := r.pos
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if v > MaxU30 {
		r.pos = start
		return 0, r.overflow(v, "u30")
	}
	return v, nil
}

// ReadS32 reads a variable-length signed value. The value is sign extended
// from the highest bit of the last group read.
func (r *Reader) ReadS32() (int32, error) {
	start := r.pos
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			r.pos = start
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 35 {
			r.pos = start
			return 0, r.overflow(result, "s32")
		}
	}
	// Sign extend
	if shift < 32 && result&(1<<(shift-1)) != 0 {
		result |= ^uint32(0) << shift
	}
	return int32(result), nil
}

// ReadD64 reads a little-endian IEEE 754 double.
func (r *Reader) ReadD64() (float64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// ReadString reads a U30 length-prefixed byte string. Bytes are kept as-is.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU30()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadCString reads a NUL-terminated string. The terminator is consumed but
// not returned.
func (r *Reader) ReadCString() (string, error) {
	i := bytes.IndexByte(r.data[r.pos:], 0)
	if i < 0 {
		return "", errors.New(errors.PhaseDecode, errors.KindUnexpectedEnd).
			Detail("unterminated string at position %d", r.pos).
			Value(r.pos).
			Build()
	}
	s := string(r.data[r.pos : r.pos+i])
	r.pos += i + 1
	return s, nil
}

// ReadRemaining reads all remaining bytes from the reader.
func (r *Reader) ReadRemaining() []byte {
	out, _ := r.ReadBytes(r.Len())
	return out
}

func (r *Reader) overflow(v any, typ string) error {
	return errors.New(errors.PhaseDecode, errors.KindOverflow).
		Value(v).
		Detail("value %v at position %d overflows %s", v, r.pos, typ).
		Build()
}
