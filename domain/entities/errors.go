package entities

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the failure class of a rejected instruction. Codes are
// stable wire values: the instruction consumer surfaces them verbatim to the
// submitting client.
type ErrorCode string

const (
	CodeInvalidAmount            ErrorCode = "invalid_amount"
	CodeInvalidArgument          ErrorCode = "invalid_argument"
	CodeDuplicateEscrow          ErrorCode = "duplicate_escrow"
	CodeInsufficientFunds        ErrorCode = "insufficient_funds"
	CodeEscrowNotFound           ErrorCode = "escrow_not_found"
	CodeStaleOrLowConfidenceFeed ErrorCode = "stale_or_low_confidence_feed"
	CodePriceConditionUnmet      ErrorCode = "price_condition_unmet"
	CodeFeedUnavailable          ErrorCode = "feed_unavailable"
	CodeGameAlreadyInitialized   ErrorCode = "game_already_initialized"
	CodeGameNotInitialized       ErrorCode = "game_not_initialized"
	CodeGameAlreadyResolved      ErrorCode = "game_already_resolved"
	CodeRollAlreadyPending       ErrorCode = "roll_already_pending"
	CodeInsufficientFeeFunds     ErrorCode = "insufficient_fee_funds"
	CodeStaleOrForeignRandomness ErrorCode = "stale_or_foreign_randomness"
	CodeUnauthorized             ErrorCode = "unauthorized"
	CodeArithmeticOverflow       ErrorCode = "arithmetic_overflow"
	CodeInternal                 ErrorCode = "internal"
)

// InstructionError is a structured error carrying a stable code alongside a
// human-readable message. Every instruction failure aborts the whole atomic
// step, so the error is the only thing a client ever sees of a failed call.
type InstructionError struct {
	Code    ErrorCode
	Message string
	Err     error // underlying cause, for logging only
}

// Error implements the error interface
func (e *InstructionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *InstructionError) Unwrap() error {
	return e.Err
}

// NewInstructionError creates an error for a rejected instruction
func NewInstructionError(code ErrorCode, format string, args ...any) *InstructionError {
	return &InstructionError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapInstructionError attaches a code and message to an underlying error
func WrapInstructionError(code ErrorCode, err error, format string, args ...any) *InstructionError {
	return &InstructionError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// CodeOf extracts the error code from err, or CodeInternal for errors that did
// not originate from instruction validation (database failures and the like).
func CodeOf(err error) ErrorCode {
	var ie *InstructionError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given instruction error code
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
