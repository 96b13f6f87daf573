package handler

import (
	"net/http"

	"chonta-api/internal/domain"
	"chonta-api/internal/middleware"
	"chonta-api/internal/service"
	"chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
)

// VoucherHandler handles redemption code scan and mint requests
type VoucherHandler struct {
	vouchers *service.VoucherService
	log      *logger.Logger
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(vouchers *service.VoucherService, log *logger.Logger) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, log: log}
}

// Redeem handles POST /api/v1/vouchers/redeem
func (h *VoucherHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req domain.RedeemVoucherRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.log)
		return
	}
	if req.Code == "" {
		respondError(w, errors.NewValidationError("code is required", nil), h.log)
		return
	}

	session := middleware.SessionFromContext(r.Context())
	resp, err := h.vouchers.Redeem(r.Context(), session, req.Code)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Mint handles POST /api/v1/vouchers/mint
func (h *VoucherHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req domain.MintVoucherRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.log)
		return
	}
	if req.ActivityID <= 0 {
		respondError(w, errors.NewValidationError("activity_id is required", nil), h.log)
		return
	}

	session := middleware.SessionFromContext(r.Context())
	resp, err := h.vouchers.Mint(r.Context(), session, &req)
	if err != nil {
		respondError(w, err, h.log)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}
