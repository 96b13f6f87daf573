package handler

import (
	"net/http"
	"strconv"

	"chonta-api/internal/middleware"
	"chonta-api/internal/service"
	"chonta-api/pkg/errors"
	"chonta-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// RewardHandler serves the reward catalog and redemption endpoint
type RewardHandler struct {
	rewards *service.RewardService
	log     *logger.Logger
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewards *service.RewardService, log *logger.Logger) *RewardHandler {
	return &RewardHandler{rewards: rewards, log: log}
}

// List handles GET /api/v1/rewards
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.List(r.Context())
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rewards": rewards,
		"total":   len(rewards),
	})
}

// Redeem handles POST /api/v1/rewards/{rewardId}/redeem
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "rewardId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondError(w, errors.NewValidationError("invalid reward id", map[string]interface{}{"reward_id": raw}), h.log)
		return
	}

	session := middleware.SessionFromContext(r.Context())
	resp, err := h.rewards.Redeem(r.Context(), session, id)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
