package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors_Status(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   string
	}{
		{"validation", ValidationFailed("bad"), http.StatusBadRequest, CodeValidationFailed},
		{"invalid input", InvalidInput("points", "must be positive"), http.StatusBadRequest, CodeInvalidInput},
		{"duplicate surfaces as 400", Duplicate("already following"), http.StatusBadRequest, CodeConflict},
		{"self action", SelfAction("endorse"), http.StatusBadRequest, CodeSelfAction},
		{"not found", NotFound("connection"), http.StatusNotFound, CodeNotFound},
		{"forbidden", Forbidden(""), http.StatusForbidden, CodeForbidden},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized, CodeUnauthorized},
		{"database", DatabaseError("insert", errors.New("boom")), http.StatusInternalServerError, CodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
		})
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := NotFound("post")
	wrapped := fmt.Errorf("load: %w", base)

	got := AsAppError(wrapped)
	if got.Code != CodeNotFound {
		t.Errorf("Code = %s, want %s", got.Code, CodeNotFound)
	}
	if GetHTTPStatus(wrapped) != http.StatusNotFound {
		t.Errorf("GetHTTPStatus = %d, want 404", GetHTTPStatus(wrapped))
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should match on code")
	}
	if !HasCode(wrapped, CodeNotFound) {
		t.Error("HasCode should find the wrapped code")
	}
}

func TestAsAppError_PlainError(t *testing.T) {
	got := AsAppError(errors.New("driver exploded"))
	if got.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", got.Status)
	}
	if got.Message != "internal server error" {
		t.Errorf("Message = %q, internal details must not leak", got.Message)
	}
}

func TestPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"self action", SelfAction("endorse"), true},
		{"validation wrapped", fmt.Errorf("apply: %w", ValidationFailed("no beneficiary")), true},
		{"not found", NotFound("post"), true},
		{"database", DatabaseError("apply entry", errors.New("down")), false},
		{"internal", InternalWithError(errors.New("breaker open")), false},
		{"plain error", errors.New("timeout"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Permanent(tt.err); got != tt.want {
				t.Errorf("Permanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited(12)
	if err.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", err.Status)
	}
	if err.Details["retry_after"] != 12 {
		t.Errorf("Details = %v", err.Details)
	}
	if StatusFor("UNKNOWN_CODE") != http.StatusInternalServerError {
		t.Error("unknown codes should map to 500")
	}
}
