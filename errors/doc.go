// Package errors provides structured error types for swfkit.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Structural decode failures also record the Offset of the record
// being decoded and the Consumed byte span read before the failure.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("pushshort", "operand[0]").
//		Value(v).
//		Detail("value does not fit in 30 bits").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnexpectedEnd(errors.PhaseDecode, pos, 3, remaining)
//	err := errors.InvalidPoolIndex(errors.PhaseRender, "multiname", 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
// The phase-less sentinels (ErrUnexpectedEndOfData, ErrMalformedCaseTable,
// ...) match any error of the same Kind.
package errors
