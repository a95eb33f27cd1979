package abc

// Encoding is how an operand slot is laid out in the instruction stream.
type Encoding uint8

const (
	EncU30       Encoding = iota + 1 // variable-length, 30 bits
	EncU8                            // one unsigned byte
	EncByte                          // one byte, sign extended
	EncS24                           // three bytes, little-endian, signed
	EncCaseTable                     // U30 count N followed by N+1 S24 deltas
)

var encodingNames = [...]string{
	EncU30:       "u30",
	EncU8:        "u8",
	EncByte:      "byte",
	EncS24:       "s24",
	EncCaseTable: "case_table",
}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) && encodingNames[e] != "" {
		return encodingNames[e]
	}
	return "invalid"
}

// Semantic is what the numeric value of an operand slot denotes.
type Semantic uint8

const (
	SemPlain      Semantic = iota // literal number
	SemMultiname                  // multiname pool index
	SemString                     // string pool index
	SemInt                        // int pool index
	SemUint                       // uint pool index
	SemDouble                     // double pool index
	SemNamespace                  // namespace pool index
	SemMethod                     // method_info index
	SemClass                      // class_info index
	SemException                  // exception table index
	SemArgCount                   // argument count
	SemRegister                   // local register number
	SemSlot                       // slot id
	SemDispatchID                 // method dispatch id
	SemLineNumber                 // source line
	SemDebugType                  // debug record type
	SemScopeIndex                 // scope stack index
	SemOffset                     // branch delta from the end of the instruction
	SemCaseBase                   // branch delta from the start of the instruction
	SemCaseOffsets                // case table, deltas from the start of the instruction
)

// IsPoolIndex reports whether values of this kind index a constant pool table.
func (s Semantic) IsPoolIndex() bool {
	switch s {
	case SemMultiname, SemString, SemInt, SemUint, SemDouble, SemNamespace:
		return true
	}
	return false
}

// IsBranch reports whether values of this kind are branch deltas.
func (s Semantic) IsBranch() bool {
	return s == SemOffset || s == SemCaseBase || s == SemCaseOffsets
}

// Operand describes one operand slot of an instruction definition.
type Operand struct {
	Encoding Encoding
	Semantic Semantic
}

func u30(s Semantic) Operand { return Operand{Encoding: EncU30, Semantic: s} }
func u8(s Semantic) Operand  { return Operand{Encoding: EncU8, Semantic: s} }
func s24(s Semantic) Operand { return Operand{Encoding: EncS24, Semantic: s} }

var (
	opByte      = Operand{Encoding: EncByte, Semantic: SemPlain}
	opCaseTable = Operand{Encoding: EncCaseTable, Semantic: SemCaseOffsets}
)
