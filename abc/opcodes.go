package abc

import "fmt"

// AVM2 opcodes.
const (
	OpBkpt            byte = 0x01
	OpNop             byte = 0x02
	OpThrow           byte = 0x03
	OpGetSuper        byte = 0x04
	OpSetSuper        byte = 0x05
	OpDxns            byte = 0x06
	OpDxnsLate        byte = 0x07
	OpKill            byte = 0x08
	OpLabel           byte = 0x09
	OpIfNlt           byte = 0x0C
	OpIfNle           byte = 0x0D
	OpIfNgt           byte = 0x0E
	OpIfNge           byte = 0x0F
	OpJump            byte = 0x10
	OpIfTrue          byte = 0x11
	OpIfFalse         byte = 0x12
	OpIfEq            byte = 0x13
	OpIfNe            byte = 0x14
	OpIfLt            byte = 0x15
	OpIfLe            byte = 0x16
	OpIfGt            byte = 0x17
	OpIfGe            byte = 0x18
	OpIfStrictEq      byte = 0x19
	OpIfStrictNe      byte = 0x1A
	OpLookupSwitch    byte = 0x1B
	OpPushWith        byte = 0x1C
	OpPopScope        byte = 0x1D
	OpNextName        byte = 0x1E
	OpHasNext         byte = 0x1F
	OpPushNull        byte = 0x20
	OpPushUndefined   byte = 0x21
	OpNextValue       byte = 0x23
	OpPushByte        byte = 0x24
	OpPushShort       byte = 0x25
	OpPushTrue        byte = 0x26
	OpPushFalse       byte = 0x27
	OpPushNaN         byte = 0x28
	OpPop             byte = 0x29
	OpDup             byte = 0x2A
	OpSwap            byte = 0x2B
	OpPushString      byte = 0x2C
	OpPushInt         byte = 0x2D
	OpPushUint        byte = 0x2E
	OpPushDouble      byte = 0x2F
	OpPushScope       byte = 0x30
	OpPushNamespace   byte = 0x31
	OpHasNext2        byte = 0x32
	OpLi8             byte = 0x35
	OpLi16            byte = 0x36
	OpLi32            byte = 0x37
	OpLf32            byte = 0x38
	OpLf64            byte = 0x39
	OpSi8             byte = 0x3A
	OpSi16            byte = 0x3B
	OpSi32            byte = 0x3C
	OpSf32            byte = 0x3D
	OpSf64            byte = 0x3E
	OpNewFunction     byte = 0x40
	OpCall            byte = 0x41
	OpConstruct       byte = 0x42
	OpCallMethod      byte = 0x43
	OpCallStatic      byte = 0x44
	OpCallSuper       byte = 0x45
	OpCallProperty    byte = 0x46
	OpReturnVoid      byte = 0x47
	OpReturnValue     byte = 0x48
	OpConstructSuper  byte = 0x49
	OpConstructProp   byte = 0x4A
	OpCallPropLex     byte = 0x4C
	OpCallSuperVoid   byte = 0x4E
	OpCallPropVoid    byte = 0x4F
	OpSxi1            byte = 0x50
	OpSxi8            byte = 0x51
	OpSxi16           byte = 0x52
	OpApplyType       byte = 0x53
	OpNewObject       byte = 0x55
	OpNewArray        byte = 0x56
	OpNewActivation   byte = 0x57
	OpNewClass        byte = 0x58
	OpGetDescendants  byte = 0x59
	OpNewCatch        byte = 0x5A
	OpFindPropStrict  byte = 0x5D
	OpFindProperty    byte = 0x5E
	OpFindDef         byte = 0x5F
	OpGetLex          byte = 0x60
	OpSetProperty     byte = 0x61
	OpGetLocal        byte = 0x62
	OpSetLocal        byte = 0x63
	OpGetGlobalScope  byte = 0x64
	OpGetScopeObject  byte = 0x65
	OpGetProperty     byte = 0x66
	OpGetOuterScope   byte = 0x67
	OpInitProperty    byte = 0x68
	OpDeleteProperty  byte = 0x6A
	OpGetSlot         byte = 0x6C
	OpSetSlot         byte = 0x6D
	OpGetGlobalSlot   byte = 0x6E
	OpSetGlobalSlot   byte = 0x6F
	OpConvertS        byte = 0x70
	OpEscXElem        byte = 0x71
	OpEscXAttr        byte = 0x72
	OpConvertI        byte = 0x73
	OpConvertU        byte = 0x74
	OpConvertD        byte = 0x75
	OpConvertB        byte = 0x76
	OpConvertO        byte = 0x77
	OpCheckFilter     byte = 0x78
	OpCoerce          byte = 0x80
	OpCoerceB         byte = 0x81
	OpCoerceA         byte = 0x82
	OpCoerceI         byte = 0x83
	OpCoerceD         byte = 0x84
	OpCoerceS         byte = 0x85
	OpAsType          byte = 0x86
	OpAsTypeLate      byte = 0x87
	OpCoerceU         byte = 0x88
	OpCoerceO         byte = 0x89
	OpNegate          byte = 0x90
	OpIncrement       byte = 0x91
	OpIncLocal        byte = 0x92
	OpDecrement       byte = 0x93
	OpDecLocal        byte = 0x94
	OpTypeOf          byte = 0x95
	OpNot             byte = 0x96
	OpBitNot          byte = 0x97
	OpAdd             byte = 0xA0
	OpSubtract        byte = 0xA1
	OpMultiply        byte = 0xA2
	OpDivide          byte = 0xA3
	OpModulo          byte = 0xA4
	OpLShift          byte = 0xA5
	OpRShift          byte = 0xA6
	OpURShift         byte = 0xA7
	OpBitAnd          byte = 0xA8
	OpBitOr           byte = 0xA9
	OpBitXor          byte = 0xAA
	OpEquals          byte = 0xAB
	OpStrictEquals    byte = 0xAC
	OpLessThan        byte = 0xAD
	OpLessEquals      byte = 0xAE
	OpGreaterThan     byte = 0xAF
	OpGreaterEquals   byte = 0xB0
	OpInstanceOf      byte = 0xB1
	OpIsType          byte = 0xB2
	OpIsTypeLate      byte = 0xB3
	OpIn              byte = 0xB4
	OpIncrementI      byte = 0xC0
	OpDecrementI      byte = 0xC1
	OpIncLocalI       byte = 0xC2
	OpDecLocalI       byte = 0xC3
	OpNegateI         byte = 0xC4
	OpAddI            byte = 0xC5
	OpSubtractI       byte = 0xC6
	OpMultiplyI       byte = 0xC7
	OpGetLocal0       byte = 0xD0
	OpGetLocal1       byte = 0xD1
	OpGetLocal2       byte = 0xD2
	OpGetLocal3       byte = 0xD3
	OpSetLocal0       byte = 0xD4
	OpSetLocal1       byte = 0xD5
	OpSetLocal2       byte = 0xD6
	OpSetLocal3       byte = 0xD7
	OpDebug           byte = 0xEF
	OpDebugLine       byte = 0xF0
	OpDebugFile       byte = 0xF1
	OpBkptLine        byte = 0xF2
	OpTimestamp       byte = 0xF3
)

// Definition is the operand schema of one opcode. Definitions are shared and
// must not be modified.
type Definition struct {
	Name     string
	Operands []Operand
	Code     byte
	Assigned bool
}

// CaseTableSlot returns the index of the case-table slot, or -1.
func (d *Definition) CaseTableSlot() int {
	for i, op := range d.Operands {
		if op.Encoding == EncCaseTable {
			return i
		}
	}
	return -1
}

func (d *Definition) String() string {
	return d.Name
}

var definitions [256]Definition

var byName = make(map[string]*Definition)

func def(code byte, name string, operands ...Operand) {
	definitions[code] = Definition{Code: code, Name: name, Operands: operands, Assigned: true}
}

func init() {
	def(OpBkpt, "bkpt")
	def(OpNop, "nop")
	def(OpThrow, "throw")
	def(OpGetSuper, "getsuper", u30(SemMultiname))
	def(OpSetSuper, "setsuper", u30(SemMultiname))
	def(OpDxns, "dxns", u30(SemString))
	def(OpDxnsLate, "dxnslate")
	def(OpKill, "kill", u30(SemRegister))
	def(OpLabel, "label")

	def(OpIfNlt, "ifnlt", s24(SemOffset))
	def(OpIfNle, "ifnle", s24(SemOffset))
	def(OpIfNgt, "ifngt", s24(SemOffset))
	def(OpIfNge, "ifnge", s24(SemOffset))
	def(OpJump, "jump", s24(SemOffset))
	def(OpIfTrue, "iftrue", s24(SemOffset))
	def(OpIfFalse, "iffalse", s24(SemOffset))
	def(OpIfEq, "ifeq", s24(SemOffset))
	def(OpIfNe, "ifne", s24(SemOffset))
	def(OpIfLt, "iflt", s24(SemOffset))
	def(OpIfLe, "ifle", s24(SemOffset))
	def(OpIfGt, "ifgt", s24(SemOffset))
	def(OpIfGe, "ifge", s24(SemOffset))
	def(OpIfStrictEq, "ifstricteq", s24(SemOffset))
	def(OpIfStrictNe, "ifstrictne", s24(SemOffset))
	def(OpLookupSwitch, "lookupswitch", s24(SemCaseBase), opCaseTable)

	def(OpPushWith, "pushwith")
	def(OpPopScope, "popscope")
	def(OpNextName, "nextname")
	def(OpHasNext, "hasnext")
	def(OpPushNull, "pushnull")
	def(OpPushUndefined, "pushundefined")
	def(OpNextValue, "nextvalue")
	def(OpPushByte, "pushbyte", opByte)
	def(OpPushShort, "pushshort", u30(SemPlain))
	def(OpPushTrue, "pushtrue")
	def(OpPushFalse, "pushfalse")
	def(OpPushNaN, "pushnan")
	def(OpPop, "pop")
	def(OpDup, "dup")
	def(OpSwap, "swap")
	def(OpPushString, "pushstring", u30(SemString))
	def(OpPushInt, "pushint", u30(SemInt))
	def(OpPushUint, "pushuint", u30(SemUint))
	def(OpPushDouble, "pushdouble", u30(SemDouble))
	def(OpPushScope, "pushscope")
	def(OpPushNamespace, "pushnamespace", u30(SemNamespace))
	def(OpHasNext2, "hasnext2", u30(SemRegister), u30(SemRegister))

	def(OpLi8, "li8")
	def(OpLi16, "li16")
	def(OpLi32, "li32")
	def(OpLf32, "lf32")
	def(OpLf64, "lf64")
	def(OpSi8, "si8")
	def(OpSi16, "si16")
	def(OpSi32, "si32")
	def(OpSf32, "sf32")
	def(OpSf64, "sf64")

	def(OpNewFunction, "newfunction", u30(SemMethod))
	def(OpCall, "call", u30(SemArgCount))
	def(OpConstruct, "construct", u30(SemArgCount))
	def(OpCallMethod, "callmethod", u30(SemDispatchID), u30(SemArgCount))
	def(OpCallStatic, "callstatic", u30(SemMethod), u30(SemArgCount))
	def(OpCallSuper, "callsuper", u30(SemMultiname), u30(SemArgCount))
	def(OpCallProperty, "callproperty", u30(SemMultiname), u30(SemArgCount))
	def(OpReturnVoid, "returnvoid")
	def(OpReturnValue, "returnvalue")
	def(OpConstructSuper, "constructsuper", u30(SemArgCount))
	def(OpConstructProp, "constructprop", u30(SemMultiname), u30(SemArgCount))
	def(OpCallPropLex, "callproplex", u30(SemMultiname), u30(SemArgCount))
	def(OpCallSuperVoid, "callsupervoid", u30(SemMultiname), u30(SemArgCount))
	def(OpCallPropVoid, "callpropvoid", u30(SemMultiname), u30(SemArgCount))
	def(OpSxi1, "sxi1")
	def(OpSxi8, "sxi8")
	def(OpSxi16, "sxi16")
	def(OpApplyType, "applytype", u30(SemArgCount))
	def(OpNewObject, "newobject", u30(SemArgCount))
	def(OpNewArray, "newarray", u30(SemArgCount))
	def(OpNewActivation, "newactivation")
	def(OpNewClass, "newclass", u30(SemClass))
	def(OpGetDescendants, "getdescendants", u30(SemMultiname))
	def(OpNewCatch, "newcatch", u30(SemException))

	def(OpFindPropStrict, "findpropstrict", u30(SemMultiname))
	def(OpFindProperty, "findproperty", u30(SemMultiname))
	def(OpFindDef, "finddef", u30(SemMultiname))
	def(OpGetLex, "getlex", u30(SemMultiname))
	def(OpSetProperty, "setproperty", u30(SemMultiname))
	def(OpGetLocal, "getlocal", u30(SemRegister))
	def(OpSetLocal, "setlocal", u30(SemRegister))
	def(OpGetGlobalScope, "getglobalscope")
	def(OpGetScopeObject, "getscopeobject", u8(SemScopeIndex))
	def(OpGetProperty, "getproperty", u30(SemMultiname))
	def(OpGetOuterScope, "getouterscope", u30(SemScopeIndex))
	def(OpInitProperty, "initproperty", u30(SemMultiname))
	def(OpDeleteProperty, "deleteproperty", u30(SemMultiname))
	def(OpGetSlot, "getslot", u30(SemSlot))
	def(OpSetSlot, "setslot", u30(SemSlot))
	def(OpGetGlobalSlot, "getglobalslot", u30(SemSlot))
	def(OpSetGlobalSlot, "setglobalslot", u30(SemSlot))

	def(OpConvertS, "convert_s")
	def(OpEscXElem, "esc_xelem")
	def(OpEscXAttr, "esc_xattr")
	def(OpConvertI, "convert_i")
	def(OpConvertU, "convert_u")
	def(OpConvertD, "convert_d")
	def(OpConvertB, "convert_b")
	def(OpConvertO, "convert_o")
	def(OpCheckFilter, "checkfilter")
	def(OpCoerce, "coerce", u30(SemMultiname))
	def(OpCoerceB, "coerce_b")
	def(OpCoerceA, "coerce_a")
	def(OpCoerceI, "coerce_i")
	def(OpCoerceD, "coerce_d")
	def(OpCoerceS, "coerce_s")
	def(OpAsType, "astype", u30(SemMultiname))
	def(OpAsTypeLate, "astypelate")
	def(OpCoerceU, "coerce_u")
	def(OpCoerceO, "coerce_o")

	def(OpNegate, "negate")
	def(OpIncrement, "increment")
	def(OpIncLocal, "inclocal", u30(SemRegister))
	def(OpDecrement, "decrement")
	def(OpDecLocal, "declocal", u30(SemRegister))
	def(OpTypeOf, "typeof")
	def(OpNot, "not")
	def(OpBitNot, "bitnot")
	def(OpAdd, "add")
	def(OpSubtract, "subtract")
	def(OpMultiply, "multiply")
	def(OpDivide, "divide")
	def(OpModulo, "modulo")
	def(OpLShift, "lshift")
	def(OpRShift, "rshift")
	def(OpURShift, "urshift")
	def(OpBitAnd, "bitand")
	def(OpBitOr, "bitor")
	def(OpBitXor, "bitxor")
	def(OpEquals, "equals")
	def(OpStrictEquals, "strictequals")
	def(OpLessThan, "lessthan")
	def(OpLessEquals, "lessequals")
	def(OpGreaterThan, "greaterthan")
	def(OpGreaterEquals, "greaterequals")
	def(OpInstanceOf, "instanceof")
	def(OpIsType, "istype", u30(SemMultiname))
	def(OpIsTypeLate, "istypelate")
	def(OpIn, "in")
	def(OpIncrementI, "increment_i")
	def(OpDecrementI, "decrement_i")
	def(OpIncLocalI, "inclocal_i", u30(SemRegister))
	def(OpDecLocalI, "declocal_i", u30(SemRegister))
	def(OpNegateI, "negate_i")
	def(OpAddI, "add_i")
	def(OpSubtractI, "subtract_i")
	def(OpMultiplyI, "multiply_i")

	def(OpGetLocal0, "getlocal_0")
	def(OpGetLocal1, "getlocal_1")
	def(OpGetLocal2, "getlocal_2")
	def(OpGetLocal3, "getlocal_3")
	def(OpSetLocal0, "setlocal_0")
	def(OpSetLocal1, "setlocal_1")
	def(OpSetLocal2, "setlocal_2")
	def(OpSetLocal3, "setlocal_3")

	def(OpDebug, "debug", u8(SemDebugType), u30(SemString), u8(SemRegister), u30(SemPlain))
	def(OpDebugLine, "debugline", u30(SemLineNumber))
	def(OpDebugFile, "debugfile", u30(SemString))
	def(OpBkptLine, "bkptline", u30(SemLineNumber))
	def(OpTimestamp, "timestamp")

	for i := range definitions {
		d := &definitions[i]
		if !d.Assigned {
			*d = Definition{Code: byte(i), Name: fmt.Sprintf("OP_0x%02X", i)}
			continue
		}
		byName[d.Name] = d
	}
}

// Lookup returns the definition of op. Every byte has a definition;
// unassigned opcodes return a placeholder whose Assigned field is false.
func Lookup(op byte) *Definition {
	return &definitions[op]
}

// LookupName returns the definition with the given mnemonic.
func LookupName(name string) (*Definition, bool) {
	d, ok := byName[name]
	return d, ok
}
