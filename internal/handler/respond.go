package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"chonta-api/pkg/errors"
	"chonta-api/pkg/logger"

	goerrors "errors"
)

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps an error onto the standard error envelope. Unclassified
// errors are reported as internal without leaking their message.
func respondError(w http.ResponseWriter, err error, log *logger.Logger) {
	var appErr *errors.AppError
	if !goerrors.As(err, &appErr) {
		log.WithError(err).Error("unclassified handler error")
		appErr = errors.NewInternalError("internal server error", nil)
	} else if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("request failed")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// decodeJSON parses a request body into dst with a small size cap.
func decodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{"reason": err.Error()})
	}
	return nil
}
