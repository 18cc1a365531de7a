package testutil

import (
	"errors"
	"testing"

	apperrors "finanzas/internal/errors"
)

// appError unwraps err into an *AppError or fails the test.
func appError(t *testing.T, err error, expectedCode string) *apperrors.AppError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	return appErr
}

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	appErr := appError(t, err, expectedCode)
	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertAppErrorStatus is AssertAppError plus a check of the HTTP status the
// error maps to.
func AssertAppErrorStatus(t *testing.T, err error, expectedCode string, expectedStatus int) {
	t.Helper()

	appErr := appError(t, err, expectedCode)
	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	if appErr.StatusCode != expectedStatus {
		t.Errorf("expected status %d for %s, got %d", expectedStatus, expectedCode, appErr.StatusCode)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
