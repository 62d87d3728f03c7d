package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Pomo error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidPhase      ErrorCode = "INVALID_PHASE"       // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrCatchupNotOffered ErrorCode = "CATCHUP_NOT_OFFERED" // 409
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// PomoError represents a structured error with code, status, and details.
type PomoError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PomoError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PomoError {
	return &PomoError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidPhase creates a 400 error for an unrecognized phase name.
func NewInvalidPhase(phase string) *PomoError {
	return &PomoError{
		Code:    ErrInvalidPhase,
		Status:  400,
		Message: fmt.Sprintf("unknown phase %q (want study, short or long)", phase),
		Details: map[string]any{"phase": phase},
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(what string) *PomoError {
	return &PomoError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewCatchupNotOffered creates a 409 error when there is no away gap to apply.
func NewCatchupNotOffered(reason string, elapsed int) *PomoError {
	return &PomoError{
		Code:    ErrCatchupNotOffered,
		Status:  409,
		Message: fmt.Sprintf("catch-up not offered: %s", reason),
		Details: map[string]any{"elapsed_seconds": elapsed},
	}
}

// NewInternal creates a 500 error for unexpected internal errors. The cause
// is kept in Details for logging and never shown in Message.
func NewInternal(err error) *PomoError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PomoError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is a PomoError with the given
// code.
func Is(err error, code ErrorCode) bool {
	var pErr *PomoError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}
