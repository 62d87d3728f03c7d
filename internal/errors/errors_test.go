package errors

import (
	"fmt"
	"testing"
)

func TestPomoError_Error(t *testing.T) {
	err := &PomoError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "not found: timer",
	}

	expected := "NOT_FOUND: not found: timer"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("seconds is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "seconds is required" {
		t.Errorf("Message = %q, want %q", err.Message, "seconds is required")
	}
}

func TestNewInvalidPhase(t *testing.T) {
	err := NewInvalidPhase("lunch")

	if err.Code != ErrInvalidPhase {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidPhase)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Details["phase"] != "lunch" {
		t.Errorf("Details[phase] = %v, want %q", err.Details["phase"], "lunch")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("timer work")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "timer work" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "timer work")
	}
}

func TestNewCatchupNotOffered(t *testing.T) {
	err := NewCatchupNotOffered("timer was paused", 42)

	if err.Code != ErrCatchupNotOffered {
		t.Errorf("Code = %q, want %q", err.Code, ErrCatchupNotOffered)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["elapsed_seconds"] != 42 {
		t.Errorf("Details[elapsed_seconds] = %v, want 42", err.Details["elapsed_seconds"])
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database is locked"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database is locked" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database is locked")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		err := NewNotFound("test")
		if !Is(err, ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		err := NewNotFound("test")
		if Is(err, ErrInvalidPhase) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("non-PomoError", func(t *testing.T) {
		err := fmt.Errorf("plain error")
		if Is(err, ErrNotFound) {
			t.Error("Is() = true, want false for non-PomoError")
		}
	})

	t.Run("wrapped PomoError", func(t *testing.T) {
		wrapped := fmt.Errorf("catchup: %w", NewCatchupNotOffered("outside window", 900))
		if !Is(wrapped, ErrCatchupNotOffered) {
			t.Error("Is() = false, want true for wrapped PomoError")
		}
		if Is(wrapped, ErrInternal) {
			t.Error("Is() = true, want false for wrong code on wrapped PomoError")
		}
	})
}
