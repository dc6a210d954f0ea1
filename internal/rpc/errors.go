package rpc

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every error a caller can observe.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindPrecondition Kind = "PRECONDITION_FAILED"
	KindDataAccess   Kind = "OPERATION_FAILED"
	KindNotFound     Kind = "NOT_FOUND"
)

// MsgOperationFailed is the only message callers see for data access
// failures.
const MsgOperationFailed = "operation failed"

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is the user-safe error returned by Registry.Call.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	// cause is kept for logging and errors.Is; it is never rendered.
	cause error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() error { return e.cause }

// Validation builds a validation error from field/reason pairs.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// InvalidField is a single-field validation error.
func InvalidField(field, reason string) *Error {
	return Validation(FieldError{Field: field, Reason: reason})
}

// Precondition reports a failed domain guard. The message is shown to the
// caller as is.
func Precondition(format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

func dataAccess(cause error) *Error {
	return &Error{Kind: KindDataAccess, Message: MsgOperationFailed, cause: cause}
}

func ProcedureNotFound(name string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("procedure %q not found", name)}
}

// KindOf returns the kind of err, treating anything that is not an *Error
// as a data access failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDataAccess
}

// IsPrecondition reports whether err is a failed domain guard.
func IsPrecondition(err error) bool {
	return err != nil && KindOf(err) == KindPrecondition
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}
