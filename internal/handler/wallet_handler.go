package handler

import (
	"net/http"

	"chonta-api/internal/domain"
	"chonta-api/internal/middleware"
	"chonta-api/internal/service"
	"chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
)

// WalletHandler handles wallet connect/disconnect and profile requests
type WalletHandler struct {
	wallets *service.WalletService
	log     *logger.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallets *service.WalletService, log *logger.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, log: log}
}

// Connect handles POST /api/v1/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req domain.ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.log)
		return
	}

	resp, err := h.wallets.Connect(r.Context(), &req)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Disconnect handles POST /api/v1/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if err := h.wallets.Disconnect(r.Context(), session); err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "wallet disconnected"})
}

// Profile handles GET /api/v1/wallet/profile
func (h *WalletHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		respondError(w, errors.NewNotConnectedError(), h.log)
		return
	}

	profile, err := h.wallets.Profile(r.Context(), session)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
