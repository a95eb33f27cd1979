package abc

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/swfkit/errors"
	"github.com/wippyai/swfkit/internal/binary"
)

// Instruction is one decoded AVM2 instruction.
//
// Operands holds one value per operand slot of Def, in order. A case table
// slot expands to the case count N followed by N+1 deltas, so for
// lookupswitch Operands is [default, N, case0, ..., caseN].
//
// Comment and Ignored belong to tooling built on top of the codec. Nothing
// in this package reads them except the listing suffix.
type Instruction struct {
	Def      *Definition
	Operands []int
	Raw      []byte // bytes as decoded
	Comment  string
	Offset   int // address within the method body
	Ignored  bool
}

// Decode decodes the instruction starting at code[offset].
//
// An unassigned opcode yields a one-byte placeholder instruction and no
// error. Running out of data or a case table that cannot fit in the rest of
// code returns an *errors.Error positioned at offset whose Consumed field
// holds the bytes read before the failure.
func Decode(code []byte, offset int) (Instruction, error) {
	r := binary.NewReader(code)
	if err := r.Reset(offset); err != nil {
		return Instruction{}, err
	}
	return decodeFrom(r)
}

func decodeFrom(r *binary.Reader) (Instruction, error) {
	start := r.Position()
	op, err := r.ReadByte()
	if err != nil {
		return Instruction{}, lift(err, start, nil)
	}

	in := Instruction{Def: Lookup(op), Offset: start}
	if !in.Def.Assigned {
		Logger().Debug("unrecognized opcode",
			zap.Int("offset", start),
			zap.Uint8("opcode", op))
		in.Raw = r.Span(start)
		return in, nil
	}

	if len(in.Def.Operands) > 0 {
		in.Operands = make([]int, 0, len(in.Def.Operands))
	}
	for _, slot := range in.Def.Operands {
		switch slot.Encoding {
		case EncU30:
			v, err := r.ReadU30()
			if err != nil {
				return Instruction{}, lift(err, start, r.Span(start))
			}
			in.Operands = append(in.Operands, int(v))
		case EncU8:
			v, err := r.ReadU8()
			if err != nil {
				return Instruction{}, lift(err, start, r.Span(start))
			}
			in.Operands = append(in.Operands, int(v))
		case EncByte:
			v, err := r.ReadS8()
			if err != nil {
				return Instruction{}, lift(err, start, r.Span(start))
			}
			in.Operands = append(in.Operands, int(v))
		case EncS24:
			v, err := r.ReadS24()
			if err != nil {
				return Instruction{}, lift(err, start, r.Span(start))
			}
			in.Operands = append(in.Operands, int(v))
		case EncCaseTable:
			n, err := r.ReadU30()
			if err != nil {
				return Instruction{}, lift(err, start, r.Span(start))
			}
			count := int(n)
			if (count+1)*3 > r.Len() {
				return Instruction{}, errors.MalformedCaseTable(errors.PhaseDecode, count, r.Len()).
					At(start, r.Span(start))
			}
			in.Operands = append(in.Operands, count)
			for i := 0; i <= count; i++ {
				v, err := r.ReadS24()
				if err != nil {
					return Instruction{}, lift(err, start, r.Span(start))
				}
				in.Operands = append(in.Operands, int(v))
			}
		}
	}

	in.Raw = r.Span(start)
	return in, nil
}

// lift positions a primitive read error at the instruction that failed.
func lift(err error, start int, consumed []byte) error {
	if e, ok := err.(*errors.Error); ok {
		return e.At(start, consumed)
	}
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Cause(err).
		Offset(start, consumed).
		Build()
}

// Encode serializes the instruction from Def and Operands. Raw is not
// consulted, so edited operands are re-encoded with their new lengths. A
// case table's count is derived from the number of deltas present.
func (in *Instruction) Encode() ([]byte, error) {
	w := binary.NewWriter()
	if err := in.encodeTo(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (in *Instruction) encodeTo(w *binary.Writer) error {
	if in.Def == nil {
		return errors.InvalidInput(errors.PhaseEncode, "instruction has no definition")
	}
	if err := in.checkArity(); err != nil {
		return err
	}

	w.Byte(in.Def.Code)
	for i, slot := range in.Def.Operands {
		v := in.Operands[i]
		switch slot.Encoding {
		case EncU30:
			if err := w.WriteU30(int64(v)); err != nil {
				return in.operandError(err, i)
			}
		case EncU8:
			if v < 0 || v > 0xFF {
				return in.operandError(errors.Overflow(errors.PhaseEncode, nil, v, "u8"), i)
			}
			w.Byte(byte(v))
		case EncByte:
			if v < -128 || v > 127 {
				return in.operandError(errors.Overflow(errors.PhaseEncode, nil, v, "byte"), i)
			}
			w.Byte(byte(int8(v)))
		case EncS24:
			if err := w.WriteS24(int64(v)); err != nil {
				return in.operandError(err, i)
			}
		case EncCaseTable:
			deltas := in.Operands[i+1:]
			if err := w.WriteU30(int64(len(deltas) - 1)); err != nil {
				return in.operandError(err, i)
			}
			for j, d := range deltas {
				if err := w.WriteS24(int64(d)); err != nil {
					return in.operandError(err, i+1+j)
				}
			}
		}
	}
	return nil
}

func (in *Instruction) checkArity() error {
	slots := len(in.Def.Operands)
	if in.Def.CaseTableSlot() >= 0 {
		// count plus at least the default case
		if len(in.Operands) < slots+1 {
			return in.arityError(slots + 1)
		}
		return nil
	}
	if len(in.Operands) != slots {
		return in.arityError(slots)
	}
	return nil
}

func (in *Instruction) arityError(want int) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
		Path(in.Def.Name).
		Value(len(in.Operands)).
		Detail("want %d operands, have %d", want, len(in.Operands)).
		Build()
}

func (in *Instruction) operandError(err error, i int) error {
	e, ok := err.(*errors.Error)
	if !ok {
		return err
	}
	c := *e
	c.Path = []string{in.Def.Name, "operand", strconv.Itoa(i)}
	return &c
}

// Len returns the encoded length of the instruction.
func (in *Instruction) Len() (int, error) {
	b, err := in.Encode()
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// SetCaseOffsets replaces the case deltas of a case table instruction. The
// stored count follows len(deltas)-1.
func (in *Instruction) SetCaseOffsets(deltas []int) error {
	slot := in.Def.CaseTableSlot()
	if slot < 0 {
		return errors.InvalidInput(errors.PhaseEncode, in.Def.Name+" has no case table")
	}
	if len(deltas) == 0 {
		return errors.InvalidInput(errors.PhaseEncode, "case table needs at least one delta")
	}
	if len(in.Operands) < slot {
		return in.arityError(slot + 2)
	}
	ops := make([]int, 0, slot+1+len(deltas))
	ops = append(ops, in.Operands[:slot]...)
	ops = append(ops, len(deltas)-1)
	ops = append(ops, deltas...)
	in.Operands = ops
	return nil
}

// BranchTargets returns the absolute addresses this instruction may
// transfer control to, in operand order.
//
// A SemOffset delta is relative to the end of the instruction, so its
// target is Offset + delta + encoded length. A SemCaseBase delta and every
// case table delta are relative to Offset alone.
func (in *Instruction) BranchTargets() ([]int, error) {
	if in.Def == nil {
		return nil, nil
	}
	var targets []int
	for i, slot := range in.Def.Operands {
		if i >= len(in.Operands) {
			return nil, in.arityError(len(in.Def.Operands))
		}
		switch slot.Semantic {
		case SemOffset:
			n, err := in.Len()
			if err != nil {
				return nil, err
			}
			targets = append(targets, in.Offset+in.Operands[i]+n)
		case SemCaseBase:
			targets = append(targets, in.Offset+in.Operands[i])
		case SemCaseOffsets:
			for _, d := range in.Operands[i+1:] {
				targets = append(targets, in.Offset+d)
			}
		}
	}
	return targets, nil
}

// String returns the mnemonic followed by the raw operand values.
func (in *Instruction) String() string {
	if in.Def == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(in.Def.Name)
	for _, v := range in.Operands {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
