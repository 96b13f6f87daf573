package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the closed set of application error kinds. Handlers and tests
// branch on the type, never on message text.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeUpstream       ErrorType = "upstream"

	// Participation / wallet domain kinds.
	ErrorTypeNotConnected        ErrorType = "not_connected"
	ErrorTypeAlreadyEnrolled     ErrorType = "already_enrolled"
	ErrorTypeAlreadyCompleted    ErrorType = "already_completed"
	ErrorTypeActivityFull        ErrorType = "activity_full"
	ErrorTypeInsufficientBalance ErrorType = "insufficient_balance"
	ErrorTypeCodeExpired         ErrorType = "code_expired"
	ErrorTypeCodeUnknown         ErrorType = "code_unknown"
	ErrorTypeRewardUnavailable   ErrorType = "reward_unavailable"
	ErrorTypeConflict            ErrorType = "conflict"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf returns the error type of err, or ErrorTypeInternal when err is not
// an *AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewUpstreamError marks a failure of the primary catalog backend. The
// fallback store downgrades it to a warning when fixture data can stand in.
func NewUpstreamError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewNotConnectedError is returned when an operation requires a connected
// wallet session and none is present.
func NewNotConnectedError() *AppError {
	return &AppError{
		Type:       ErrorTypeNotConnected,
		Message:    "wallet not connected",
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAlreadyEnrolledError is returned on a duplicate enrollment attempt.
func NewAlreadyEnrolledError(activityID int) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyEnrolled,
		Message:    "already enrolled in this activity",
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"activity_id": activityID},
	}
}

// NewAlreadyCompletedError is returned when completing an activity twice.
func NewAlreadyCompletedError(activityID int) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyCompleted,
		Message:    "activity already completed",
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"activity_id": activityID},
	}
}

// NewActivityFullError is returned when an activity is at capacity.
func NewActivityFullError(activityID int) *AppError {
	return &AppError{
		Type:       ErrorTypeActivityFull,
		Message:    "activity is full",
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"activity_id": activityID},
	}
}

// NewInsufficientBalanceError is returned when a redemption costs more than
// the current balance. The balance is never driven negative.
func NewInsufficientBalanceError(cost, balance int) *AppError {
	return &AppError{
		Type:       ErrorTypeInsufficientBalance,
		Message:    "insufficient tokens",
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"cost": cost, "balance": balance},
	}
}

// NewCodeExpiredError is returned for a voucher past its expiry.
func NewCodeExpiredError() *AppError {
	return &AppError{
		Type:       ErrorTypeCodeExpired,
		Message:    "code expired",
		StatusCode: http.StatusGone,
	}
}

// NewCodeUnknownError is returned for a voucher code that matches neither the
// signed-token format nor the legacy codebook.
func NewCodeUnknownError() *AppError {
	return &AppError{
		Type:       ErrorTypeCodeUnknown,
		Message:    "code not recognized",
		StatusCode: http.StatusNotFound,
	}
}

// NewRewardUnavailableError is returned when a catalog reward is disabled.
func NewRewardUnavailableError(rewardID int) *AppError {
	return &AppError{
		Type:       ErrorTypeRewardUnavailable,
		Message:    "reward not available",
		StatusCode: http.StatusConflict,
		Details:    map[string]interface{}{"reward_id": rewardID},
	}
}

// NewConflictError is returned on a lost optimistic-concurrency race, after
// retries are exhausted.
func NewConflictError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
