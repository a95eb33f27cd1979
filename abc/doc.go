// Package abc decodes, encodes and prints AVM2 bytecode.
//
// The opcode space is described by a total table of Definitions, one per
// byte value. Each Definition lists its operand slots as an Encoding (how the
// slot is laid out) and a Semantic (what the value denotes):
//
//	d := abc.Lookup(abc.OpJump)   // "jump", one s24 branch delta
//	d := abc.Lookup(0xFF)         // "OP_0xFF", Assigned == false
//
// Disassemble walks a method body instruction by instruction. Bytes that do
// not name an opcode decode to one-byte placeholder instructions so the rest
// of the body stays readable; truncated operands and impossible case tables
// abort with an *errors.Error carrying the failing offset and the bytes read.
//
//	code, err := abc.Disassemble(body.Code)
//	for _, in := range code {
//		line, err := in.Line(file.Pool)
//		...
//	}
//
// Branch targets follow two rules. Plain offsets (jumps and conditional
// branches) are relative to the end of the instruction; the lookupswitch
// default and every case entry are relative to its start.
//
// Constant pool references are not checked while decoding. An out-of-range
// index surfaces as ErrInvalidConstantPoolIndex when the instruction is
// rendered against a pool.
//
// File parses and encodes a complete ABC unit as carried by DoABC tags.
package abc
