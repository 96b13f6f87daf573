package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/service"
	"chonta-api/pkg/errors"
	"chonta-api/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// SessionContextKey is the key for the wallet session in context
	SessionContextKey ContextKey = "session"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// SessionFromContext returns the wallet session stored by Auth, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(SessionContextKey).(*domain.Session)
	return session
}

// Auth creates an authentication middleware that validates the wallet
// session token and stores the session in the request context.
func Auth(wallets *service.WalletService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := bearerToken(r)
			if appErr != nil {
				writeErrorResponse(w, appErr, logger)
				return
			}

			ctx := r.Context()
			session, err := wallets.ValidateSession(ctx, token)
			if err != nil {
				logger.WithError(err).Warn("session validation failed")
				writeErrorResponse(w, errors.NewAuthenticationError("invalid or expired session"), logger)
				return
			}

			ctx = context.WithValue(ctx, SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth validates a session token when one is present, and continues
// anonymously otherwise.
func OptionalAuth(wallets *service.WalletService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, appErr := bearerToken(r)
			if appErr != nil {
				writeErrorResponse(w, appErr, logger)
				return
			}

			ctx := r.Context()
			session, err := wallets.ValidateSession(ctx, token)
			if err != nil {
				writeErrorResponse(w, errors.NewAuthenticationError("invalid or expired session"), logger)
				return
			}

			ctx = context.WithValue(ctx, SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.NewAuthenticationError("Authorization header is required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", errors.NewAuthenticationError("token is required")
	}
	return token, nil
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Error("request rejected")

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
