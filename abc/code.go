package abc

import (
	stderrors "errors"
	"slices"
	"sort"
	"strings"

	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/internal/binary"
)

// Code is the instruction sequence of one method body, in address order.
type Code []Instruction

// Disassemble decodes a method body. Address 0 is the first byte of code.
//
// Unassigned opcodes become placeholder instructions and decoding goes on.
// A structural failure stops decoding; the instructions decoded before it
// are returned along with the error.
func Disassemble(code []byte) (Code, error) {
	r := binary.NewReader(code)
	var out Code
	for r.Len() > 0 {
		in, err := decodeFrom(r)
		if err != nil {
			return out, err
		}
		out = append(out, in)
	}
	return out, nil
}

// Encode serializes every instruction in order.
func (c Code) Encode() ([]byte, error) {
	w := binary.NewWriter()
	for i := range c {
		if err := c[i].encodeTo(w); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// Targets returns the sorted, distinct branch targets of all instructions.
func (c Code) Targets() ([]int, error) {
	var all []int
	for i := range c {
		t, err := c[i].BranchTargets()
		if err != nil {
			return nil, err
		}
		all = append(all, t...)
	}
	slices.Sort(all)
	return slices.Compact(all), nil
}

// IndexOf returns the index of the instruction starting at addr, or -1.
func (c Code) IndexOf(addr int) int {
	i := sort.Search(len(c), func(i int) bool { return c[i].Offset >= addr })
	if i < len(c) && c[i].Offset == addr {
		return i
	}
	return -1
}

// end returns the address just past the last instruction.
func (c Code) end() int {
	if len(c) == 0 {
		return 0
	}
	last := c[len(c)-1]
	return last.Offset + len(last.Raw)
}

// Unrecognized reports every placeholder instruction as an
// ErrUnrecognizedOpcode diagnostic positioned at its offset, joined. It
// returns nil when every byte decoded to an assigned opcode.
func (c Code) Unrecognized() error {
	var errs []error
	for i := range c {
		in := &c[i]
		if in.Def == nil || in.Def.Assigned {
			continue
		}
		errs = append(errs, errors.UnrecognizedOpcode(errors.PhaseDecode, in.Def.Code, in.Offset).
			At(in.Offset, in.Raw))
	}
	return stderrors.Join(errs...)
}

// Relayout assigns fresh offsets and raw bytes after instructions were
// edited, inserted or removed, and rewrites branch deltas so that every
// branch still reaches the instruction it reached before.
//
// Targets are resolved against the offsets held before the call. An
// inserted instruction should carry the offset of the position it was
// inserted at; it then becomes the target of branches to that position.
// Branches to an address that starts no instruction keep their delta.
func (c Code) Relayout() error {
	start := make(map[int]int, len(c))
	for i := len(c) - 1; i >= 0; i-- {
		start[c[i].Offset] = i
	}
	start[c.end()] = len(c)

	type link struct {
		in, operand, target int
		base                bool
	}
	var links []link
	for i := range c {
		in := &c[i]
		if in.Def == nil {
			continue
		}
		size := len(in.Raw)
		if n, err := in.Len(); err == nil {
			size = n
		}
		for s, slot := range in.Def.Operands {
			if s >= len(in.Operands) {
				break
			}
			switch slot.Semantic {
			case SemOffset:
				if t, ok := start[in.Offset+in.Operands[s]+size]; ok {
					links = append(links, link{in: i, operand: s, target: t})
				}
			case SemCaseBase:
				if t, ok := start[in.Offset+in.Operands[s]]; ok {
					links = append(links, link{in: i, operand: s, target: t, base: true})
				}
			case SemCaseOffsets:
				for j := s + 1; j < len(in.Operands); j++ {
					if t, ok := start[in.Offset+in.Operands[j]]; ok {
						links = append(links, link{in: i, operand: j, target: t, base: true})
					}
				}
			}
		}
	}

	// Branch operands are fixed width, so lengths do not depend on deltas.
	offsets := make([]int, len(c)+1)
	for i := range c {
		raw, err := c[i].Encode()
		if err != nil {
			return err
		}
		c[i].Raw = raw
		offsets[i+1] = offsets[i] + len(raw)
	}
	for i := range c {
		c[i].Offset = offsets[i]
	}

	for _, l := range links {
		in := &c[l.in]
		delta := offsets[l.target] - in.Offset
		if !l.base {
			delta -= len(in.Raw)
		}
		in.Operands[l.operand] = delta
	}

	for i := range c {
		raw, err := c[i].Encode()
		if err != nil {
			return err
		}
		c[i].Raw = raw
	}
	return nil
}

// Listing renders the body one instruction per line. Every branch target
// gets an "ofsXXXX:" label line before the instruction at that address.
//
// Every instruction is rendered even when some operands cannot be resolved;
// all such errors are returned joined.
func (c Code) Listing(pool *ConstantPool, opts ListingOptions) (string, error) {
	var errs []error
	labels := make(map[int]bool)
	targets, err := c.Targets()
	if err != nil {
		errs = append(errs, err)
	}
	for _, t := range targets {
		labels[t] = true
	}

	var b strings.Builder
	for i := range c {
		if labels[c[i].Offset] {
			b.WriteString("ofs" + formatAddress(c[i].Offset) + ":\n")
		}
		line, err := c[i].Text(pool, opts)
		if err != nil {
			errs = append(errs, err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), stderrors.Join(errs...)
}
