package handler

import (
	"net/http"
	"strconv"

	"chonta-api/internal/service"
	"chonta-api/pkg/logger"
)

// BoardHandler serves the leaderboard and platform stats
type BoardHandler struct {
	board *service.LeaderboardService
	log   *logger.Logger
}

// NewBoardHandler creates a new leaderboard handler
func NewBoardHandler(board *service.LeaderboardService, log *logger.Logger) *BoardHandler {
	return &BoardHandler{board: board, log: log}
}

// Leaderboard handles GET /api/v1/leaderboard?limit=N
func (h *BoardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	board, err := h.board.Top(r.Context(), limit)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// Stats handles GET /api/v1/stats
func (h *BoardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.board.Stats(r.Context())
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
