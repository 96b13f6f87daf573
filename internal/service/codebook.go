package service

import (
	"time"

	"chonta-api/internal/domain"
)

// Codebook is the static table of legacy printed codes. New vouchers are
// HMAC-signed tokens; these unsigned codes remain honored until the printed
// batches expire.
type Codebook struct {
	codes map[string]domain.LegacyVoucher
}

// NewCodebook builds a lookup table from the given vouchers.
func NewCodebook(vouchers []domain.LegacyVoucher) *Codebook {
	codes := make(map[string]domain.LegacyVoucher, len(vouchers))
	for _, v := range vouchers {
		codes[v.Code] = v
	}
	return &Codebook{codes: codes}
}

// DefaultCodebook carries the printed batches currently in circulation.
func DefaultCodebook() *Codebook {
	return NewCodebook([]domain.LegacyVoucher{
		{
			Code:         "CHT124567890",
			ActivityID:   1,
			ActivityName: "Limpieza del Río Cali",
			Tokens:       15,
			Location:     "Río Cali, Sector Bosque",
			Date:         "2026-09-15",
			Organizer:    "Fundación Río Limpio",
			ExpiresAt:    time.Date(2027, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			Code:         "CHT124567891",
			ActivityID:   3,
			ActivityName: "Siembra en el Cerro",
			Tokens:       30,
			Location:     "Cerro de las Tres Cruces",
			Date:         "2026-09-22",
			Organizer:    "Reforesta Cali",
			ExpiresAt:    time.Date(2027, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			// First pilot batch, long expired. Kept so scans report
			// "expired" instead of "not recognized".
			Code:         "CHT100000001",
			ActivityID:   4,
			ActivityName: "Jornada de Reciclaje",
			Tokens:       10,
			Location:     "Plaza de Caicedo",
			Date:         "2025-03-01",
			Organizer:    "Recicla Ya",
			ExpiresAt:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	})
}

// Lookup returns the voucher for a code, if the code is in the book.
func (c *Codebook) Lookup(code string) (domain.LegacyVoucher, bool) {
	v, ok := c.codes[code]
	return v, ok
}
