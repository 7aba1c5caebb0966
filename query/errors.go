package query

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes criteria errors.
type Code string

const (
	// CodeInvalidArgument indicates a mutator was given a value outside
	// its contract (unanchored regex, non-positive limit, too many
	// polygon points, ...).
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeInvalidType indicates a value of the wrong kind (non-numeric
	// string where a number is required, non-comparable range bound).
	CodeInvalidType Code = "INVALID_TYPE"

	// CodeUnsupportedOffline indicates the filter tree uses operators
	// that cannot be evaluated against the local cache.
	CodeUnsupportedOffline Code = "UNSUPPORTED_OFFLINE"

	// CodeInvalidSnapshot indicates a plain snapshot could not be
	// reconstructed into a criteria.
	CodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
)

// Error is the single error kind produced by criteria construction and
// local evaluation. All violations are synchronous validation failures;
// there is nothing to retry.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the operation that failed (e.g., "Matches", "SetLimit").
	Op string

	// Message is a human-readable description.
	Message string

	// Operators lists the offending filter operators for
	// CodeUnsupportedOffline errors.
	Operators []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Operators) > 0 {
		return fmt.Sprintf("%s: %s: %s (%s)", e.Code, e.Op, e.Message, strings.Join(e.Operators, ", "))
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument reports whether err is a criteria error with
// CodeInvalidArgument. Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Code == CodeInvalidArgument
}

// IsInvalidType reports whether err is a criteria error with
// CodeInvalidType.
func IsInvalidType(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Code == CodeInvalidType
}

// IsUnsupportedOffline reports whether err is a criteria error with
// CodeUnsupportedOffline.
func IsUnsupportedOffline(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Code == CodeUnsupportedOffline
}

// NewUnsupportedOfflineError builds the error raised when offline
// evaluation encounters operators the local matcher cannot serve.
// Operators should list every offender found, not just the first.
func NewUnsupportedOfflineError(op string, operators []string) *Error {
	return &Error{
		Code:      CodeUnsupportedOffline,
		Op:        op,
		Message:   "filter uses operators that cannot be evaluated offline",
		Operators: operators,
	}
}

func newError(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}
