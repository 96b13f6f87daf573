package handler

import (
	"net/http"
	"strconv"

	"chonta-api/internal/domain"
	"chonta-api/internal/middleware"
	"chonta-api/internal/service"
	"chonta-api/pkg/errors"
	"chonta-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ActivityHandler serves the activity catalog and enrollment endpoints
type ActivityHandler struct {
	activities    *service.ActivityService
	participation *service.ParticipationService
	log           *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activities *service.ActivityService, participation *service.ParticipationService, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities:    activities,
		participation: participation,
		log:           log,
	}
}

// List handles GET /api/v1/activities
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.List(r.Context())
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"total":      len(activities),
	})
}

// Upcoming handles GET /api/v1/activities/upcoming
func (h *ActivityHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.Upcoming(r.Context())
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"total":      len(activities),
	})
}

// activityDetail is the Get payload: the activity itself plus, for an
// authenticated caller, their own participation record.
type activityDetail struct {
	*domain.Activity
	Participation *domain.Participation `json:"participation,omitempty"`
}

// Get handles GET /api/v1/activities/{activityId}. The route carries optional
// auth: with a wallet session the response includes the caller's
// participation.
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		respondError(w, err, h.log)
		return
	}

	activity, err := h.activities.Get(r.Context(), id)
	if err != nil {
		respondError(w, err, h.log)
		return
	}

	detail := activityDetail{Activity: activity}
	if session := middleware.SessionFromContext(r.Context()); session.Connected() {
		p, err := h.participation.Status(r.Context(), session.Address, id)
		if err != nil {
			respondError(w, err, h.log)
			return
		}
		detail.Participation = p
	}
	respondJSON(w, http.StatusOK, detail)
}

// Enroll handles POST /api/v1/activities/{activityId}/enroll
func (h *ActivityHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		respondError(w, err, h.log)
		return
	}

	session := middleware.SessionFromContext(r.Context())
	resp, err := h.participation.Enroll(r.Context(), session, id)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Complete handles POST /api/v1/activities/{activityId}/complete
func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		respondError(w, err, h.log)
		return
	}

	session := middleware.SessionFromContext(r.Context())
	resp, err := h.participation.Complete(r.Context(), session, id)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Unenroll handles POST /api/v1/activities/{activityId}/unenroll
func (h *ActivityHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		respondError(w, err, h.log)
		return
	}

	session := middleware.SessionFromContext(r.Context())
	if err := h.participation.Unenroll(r.Context(), session, id); err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "enrollment cancelled"})
}

func activityID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "activityId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("invalid activity id", map[string]interface{}{"activity_id": raw})
	}
	return id, nil
}
