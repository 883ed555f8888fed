package rewrite

import (
	"errors"
	"fmt"

	"github.com/roach88/mica/internal/ir"
)

// ConversionError represents a failure detected while converting a
// module. It carries a structured code so callers can distinguish
// configuration mistakes from module invariant violations.
type ConversionError struct {
	// Code identifies the error category.
	Code ConversionErrorCode

	// Message is a human-readable description.
	Message string

	// OpKind identifies the op kind involved, when there is one.
	OpKind ir.OpKind

	// Pattern names the pattern involved, for application failures.
	Pattern string
}

// ConversionErrorCode categorizes conversion errors.
type ConversionErrorCode string

const (
	// ErrCodeIllegalUnmatched indicates an illegal op that no registered
	// pattern can rewrite. Under partial conversion this fails the pass.
	ErrCodeIllegalUnmatched ConversionErrorCode = "ILLEGAL_OP_UNMATCHED"

	// ErrCodePatternFailed indicates a pattern matched but its rewrite
	// returned an error.
	ErrCodePatternFailed ConversionErrorCode = "PATTERN_FAILED"

	// ErrCodeInvariantViolation indicates the module contradicts an
	// invariant a pattern relies on (for example a symbol that resolves
	// to an op of the wrong kind). Non-recoverable: the module is
	// inconsistent and the pass aborts rather than attempting repair.
	ErrCodeInvariantViolation ConversionErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeResultShape indicates a matched op's result shape violates
	// the pattern's precondition (for example a packed width exceeding
	// the counter width).
	ErrCodeResultShape ConversionErrorCode = "RESULT_SHAPE"
)

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("%s: %s (op=%s, pattern=%s)", e.Code, e.Message, e.OpKind, e.Pattern)
	}
	if e.OpKind != ir.KindInvalid {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.OpKind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvariantViolation reports whether err is a conversion error with
// the INVARIANT_VIOLATION code. Uses errors.As to handle wrapping.
func IsInvariantViolation(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce) && ce.Code == ErrCodeInvariantViolation
}

// NewInvariantError creates an INVARIANT_VIOLATION conversion error.
func NewInvariantError(kind ir.OpKind, message string) *ConversionError {
	return &ConversionError{Code: ErrCodeInvariantViolation, OpKind: kind, Message: message}
}

// NewResultShapeError creates a RESULT_SHAPE conversion error.
func NewResultShapeError(kind ir.OpKind, message string) *ConversionError {
	return &ConversionError{Code: ErrCodeResultShape, OpKind: kind, Message: message}
}
