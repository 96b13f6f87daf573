package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without internal error",
			err:      NewCodeUnknownError(),
			expected: "code_unknown: code not recognized",
		},
		{
			name:     "with internal error",
			err:      NewUpstreamError("catalog unavailable", errors.New("dial tcp: refused")),
			expected: "upstream: catalog unavailable (dial tcp: refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsType(t *testing.T) {
	base := NewAlreadyEnrolledError(7)
	wrapped := fmt.Errorf("enroll failed: %w", base)

	if !IsType(base, ErrorTypeAlreadyEnrolled) {
		t.Error("IsType should match the error's own type")
	}
	if !IsType(wrapped, ErrorTypeAlreadyEnrolled) {
		t.Error("IsType should see through fmt.Errorf wrapping")
	}
	if IsType(base, ErrorTypeCodeExpired) {
		t.Error("IsType should not match a different type")
	}
	if IsType(errors.New("plain"), ErrorTypeAlreadyEnrolled) {
		t.Error("IsType should be false for non-AppError")
	}
}

func TestTypeOf(t *testing.T) {
	if got := TypeOf(NewInsufficientBalanceError(100, 10)); got != ErrorTypeInsufficientBalance {
		t.Errorf("TypeOf = %s, want %s", got, ErrorTypeInsufficientBalance)
	}
	if got := TypeOf(errors.New("plain")); got != ErrorTypeInternal {
		t.Errorf("TypeOf(plain) = %s, want %s", got, ErrorTypeInternal)
	}
}

func TestDomainErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewNotConnectedError(), http.StatusUnauthorized},
		{NewAlreadyEnrolledError(1), http.StatusConflict},
		{NewAlreadyCompletedError(1), http.StatusConflict},
		{NewActivityFullError(1), http.StatusConflict},
		{NewInsufficientBalanceError(50, 0), http.StatusConflict},
		{NewCodeExpiredError(), http.StatusGone},
		{NewCodeUnknownError(), http.StatusNotFound},
		{NewRewardUnavailableError(3), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			if tt.err.StatusCode != tt.status {
				t.Errorf("%s status = %d, want %d", tt.err.Type, tt.err.StatusCode, tt.status)
			}
		})
	}
}
