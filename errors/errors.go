package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode Phase = "decode" // bytes to model
	PhaseEncode Phase = "encode" // model to bytes
	PhaseRender Phase = "render" // model to listing text
	PhaseParse  Phase = "parse"  // container framing
)

// Kind categorizes the error
type Kind string

const (
	KindUnexpectedEnd      Kind = "unexpected_end_of_data"
	KindInvalidPoolIndex   Kind = "invalid_constant_pool_index"
	KindUnrecognizedOpcode Kind = "unrecognized_opcode"
	KindMalformedCaseTable Kind = "malformed_case_table"
	KindOverflow           Kind = "overflow"
	KindInvalidData        Kind = "invalid_data"
	KindInvalidInput       Kind = "invalid_input"
	KindUnsupported        Kind = "unsupported"
)

// Sentinels for errors.Is. They carry no Phase, so they match any phase.
var (
	ErrUnexpectedEndOfData      = &Error{Kind: KindUnexpectedEnd}
	ErrInvalidConstantPoolIndex = &Error{Kind: KindInvalidPoolIndex}
	ErrUnrecognizedOpcode       = &Error{Kind: KindUnrecognizedOpcode}
	ErrMalformedCaseTable       = &Error{Kind: KindMalformedCaseTable}
	ErrOverflow                 = &Error{Kind: KindOverflow}
)

// Error is the structured error type used throughout swfkit.
//
// Offset is the position of the record (instruction or tag) whose decoding
// failed and Consumed is the byte span read from it before the failure.
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Detail   string
	Path     []string
	Consumed []byte
	Offset   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Offset > 0 || len(e.Consumed) > 0 {
		fmt.Fprintf(&b, " (offset %d, consumed %d bytes)", e.Offset, len(e.Consumed))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a Phase
// matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// At returns a copy of e positioned at the record starting at offset, with
// the given consumed span. Used when a low-level read error is lifted to the
// instruction or tag that was being decoded.
func (e *Error) At(offset int, consumed []byte) *Error {
	c := *e
	c.Offset = offset
	c.Consumed = consumed
	return &c
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Offset sets the record offset and the span consumed from it
func (b *Builder) Offset(offset int, consumed []byte) *Builder {
	b.err.Offset = offset
	b.err.Consumed = consumed
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnexpectedEnd creates an end-of-data error for a read of want bytes at
// position pos when only have bytes remain.
func UnexpectedEnd(phase Phase, pos, want, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnexpectedEnd,
		Detail: fmt.Sprintf("need %d bytes at position %d, %d available", want, pos, have),
		Value:  pos,
	}
}

// InvalidPoolIndex creates an out-of-range constant pool reference error
func InvalidPoolIndex(phase Phase, table string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidPoolIndex,
		Path:   []string{table},
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// UnrecognizedOpcode creates a diagnostic for a byte that names no opcode.
// Decoding does not fail on it; the error describes a placeholder.
func UnrecognizedOpcode(phase Phase, op byte, offset int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnrecognizedOpcode,
		Detail: fmt.Sprintf("opcode 0x%02X at offset %d", op, offset),
		Value:  op,
		Offset: offset,
	}
}

// MalformedCaseTable creates an error for a case count that cannot fit in
// the remaining stream.
func MalformedCaseTable(phase Phase, count, remaining int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedCaseTable,
		Detail: fmt.Sprintf("case count %d needs %d bytes, %d available", count, (count+1)*3, remaining),
		Value:  count,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a container parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
