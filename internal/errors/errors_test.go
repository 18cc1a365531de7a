package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrInternalServer, cause)

	if err.Code != ErrInternalServer.Code || err.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected internal error code/status, got %s/%d", err.Code, err.StatusCode)
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to unwrap to its cause")
	}
	if err.Error() != ErrInternalServer.Message {
		t.Errorf("expected public message, got %q", err.Error())
	}
	if ErrInternalServer.Internal != nil {
		t.Error("wrapping must not mutate the sentinel")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "month must be between 1 and 12")
	if err.Code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %s", err.Code)
	}
	if err.Message != "month must be between 1 and 12" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if ErrInvalidInput.Message != "Invalid input" {
		t.Error("WithMessage must not mutate the sentinel")
	}
}

func TestTaxonomyStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{ErrBudgetNotFound, http.StatusNotFound},
		{ErrNotificationNotFound, http.StatusNotFound},
		{ErrCategoryNotFound, http.StatusNotFound},
		{ErrDuplicateBudget, http.StatusConflict},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if tt.err.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, tt.err.StatusCode)
			}
		})
	}
}
