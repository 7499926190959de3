// Package domainerrors carries the typed error vocabulary shared by services and
// transport. Services return *Error values; handlers translate them with
// ToHTTPStatus. Stores never construct these directly, they return sentinel
// errors from pkg/platform/sentinel which services translate.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for callers and transport.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeGuardViolation     Code = "guard_violation"
	CodeConfiguration      Code = "configuration_error"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Reason is a machine-readable qualifier on a guard violation.
type Reason string

const (
	ReasonUnauthorized      Reason = "unauthorized"
	ReasonNotReady          Reason = "not-ready"
	ReasonFeedbackRequired  Reason = "feedback-required"
	ReasonInvalidTransition Reason = "invalid-transition"
)

// Error is a domain error with a stable code, an optional guard reason and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error with the given code.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Guard builds a guard violation carrying reason.
func Guard(reason Reason, message string) error {
	return &Error{Code: CodeGuardViolation, Reason: reason, Message: message}
}

// From returns the outermost *Error in err's chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	de, ok := From(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ReasonOf returns the guard reason of err, or "" when err is not a guard violation.
func ReasonOf(err error) Reason {
	de, ok := From(err)
	if !ok || de.Code != CodeGuardViolation {
		return ""
	}
	return de.Reason
}

// IsGuard reports whether err is a guard violation with the given reason.
func IsGuard(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}

// ToHTTPStatus maps an error to an HTTP status code.
func ToHTTPStatus(err error) int {
	de, ok := From(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeGuardViolation:
		switch de.Reason {
		case ReasonUnauthorized:
			return http.StatusForbidden
		case ReasonInvalidTransition:
			return http.StatusConflict
		default:
			return http.StatusUnprocessableEntity
		}
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
