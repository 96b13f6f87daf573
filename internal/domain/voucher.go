package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VoucherClaims are the signed contents of a redemption voucher: which
// activity it completes, how many tokens it pays, and a single-use nonce.
type VoucherClaims struct {
	ActivityID int    `json:"activity_id"`
	Tokens     int    `json:"tokens"`
	Nonce      string `json:"nonce"`
	jwt.RegisteredClaims
}

// LegacyVoucher is an entry in the static codebook kept for compatibility
// with pre-signed printed codes. These carry no signature; the codebook
// itself is the trust anchor.
type LegacyVoucher struct {
	Code         string    `json:"code"`
	ActivityID   int       `json:"activity_id"`
	ActivityName string    `json:"activity_name"`
	Tokens       int       `json:"tokens"`
	Location     string    `json:"location"`
	Date         string    `json:"date"`
	Organizer    string    `json:"organizer"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RedeemVoucherRequest is the scan/entry payload.
type RedeemVoucherRequest struct {
	Code string `json:"code"`
}

// RedeemVoucherResponse reports a successful redemption.
type RedeemVoucherResponse struct {
	ActivityID   int       `json:"activity_id"`
	ActivityName string    `json:"activity_name,omitempty"`
	TokensEarned int       `json:"tokens_earned"`
	NewBalance   int       `json:"new_balance"`
	Tier         Tier      `json:"tier"`
	CompletedAt  time.Time `json:"completed_at"`
	Message      string    `json:"message"`
}

// MintVoucherRequest is the organizer-side mint payload.
type MintVoucherRequest struct {
	ActivityID int `json:"activity_id"`
	Tokens     int `json:"tokens"`
	TTLMinutes int `json:"ttl_minutes"`
}

// MintVoucherResponse carries the freshly signed voucher token.
type MintVoucherResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
