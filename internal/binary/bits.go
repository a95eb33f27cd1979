package binary

import "github.com/wippyai/swfkit/errors"

// BitReader reads MSB-first bit fields (SWF UB/SB) from a Reader. Bit fields
// start on a byte boundary and the partial byte is discarded by Align.
type BitReader struct {
	r    *Reader
	cur  byte
	left uint
}

// NewBitReader creates a BitReader over r at its current position.
func NewBitReader(r *Reader) *BitReader {
	return &BitReader{r: r}
}

// ReadUB reads an unsigned n-bit field, n <= 32.
func (b *BitReader) ReadUB(n uint) (uint32, error) {
	if n > 32 {
		return 0, errors.InvalidInput(errors.PhaseDecode, "bit field wider than 32 bits")
	}
	var v uint32
	for i := uint(0); i < n; i++ {
		if b.left == 0 {
			c, err := b.r.ReadByte()
			if err != nil {
				return 0, err
			}
			b.cur = c
			b.left = 8
		}
		b.left--
		v = v<<1 | uint32(b.cur>>b.left)&1
	}
	return v, nil
}

// ReadSB reads a signed n-bit field, n <= 32.
func (b *BitReader) ReadSB(n uint) (int32, error) {
	v, err := b.ReadUB(n)
	if err != nil || n == 0 || n == 32 {
		return int32(v), err
	}
	if v&(1<<(n-1)) != 0 {
		v |= ^uint32(0) << n
	}
	return int32(v), nil
}

// Align discards the remaining bits of the current byte.
func (b *BitReader) Align() {
	b.left = 0
}

// BitWriter writes MSB-first bit fields to a Writer.
type BitWriter struct {
	w   *Writer
	cur byte
	n   uint
}

// NewBitWriter creates a BitWriter appending to w.
func NewBitWriter(w *Writer) *BitWriter {
	return &BitWriter{w: w}
}

// WriteUB writes the low n bits of v.
func (b *BitWriter) WriteUB(n uint, v uint32) {
	for i := n; i > 0; i-- {
		b.cur = b.cur<<1 | byte(v>>(i-1))&1
		b.n++
		if b.n == 8 {
			b.w.Byte(b.cur)
			b.cur, b.n = 0, 0
		}
	}
}

// WriteSB writes the low n bits of the two's-complement form of v.
func (b *BitWriter) WriteSB(n uint, v int32) {
	b.WriteUB(n, uint32(v))
}

// Flush pads the current byte with zero bits and writes it.
func (b *BitWriter) Flush() {
	if b.n > 0 {
		b.w.Byte(b.cur << (8 - b.n))
		b.cur, b.n = 0, 0
	}
}

// SignedBits returns the number of bits needed to hold v as an SB field.
func SignedBits(v int32) uint {
	if v < 0 {
		v = ^v
	}
	n := uint(1)
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}
