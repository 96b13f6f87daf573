package domain

import "time"

// Tier is the participation level derived from the token balance.
type Tier string

const (
	TierNuevo  Tier = "Nuevo"
	TierActivo Tier = "Activo"
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
)

// Tier thresholds. A balance at or above the threshold earns the tier.
const (
	thresholdActivo = 50
	thresholdBronze = 100
	thresholdSilver = 300
	thresholdGold   = 500
)

// TierForBalance maps a token balance to its tier.
func TierForBalance(balance int) Tier {
	switch {
	case balance >= thresholdGold:
		return TierGold
	case balance >= thresholdSilver:
		return TierSilver
	case balance >= thresholdBronze:
		return TierBronze
	case balance >= thresholdActivo:
		return TierActivo
	default:
		return TierNuevo
	}
}

// User represents a participant, keyed by wallet address.
type User struct {
	Address   string    `json:"address"`
	Name      string    `json:"name"`
	Balance   int       `json:"balance"`
	Tier      Tier      `json:"tier"`
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the authenticated wallet identity placed in request context by
// the auth middleware.
type Session struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Connected reports whether the session carries a wallet address.
func (s *Session) Connected() bool {
	return s != nil && s.Address != ""
}

// ConnectRequest is the wallet connect payload.
type ConnectRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// ConnectResponse carries the session token issued on connect.
type ConnectResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message"`
}

// Profile is the wallet profile view: identity plus derived progress.
type Profile struct {
	User           *User `json:"user"`
	Balance        int   `json:"balance"`
	Tier           Tier  `json:"tier"`
	Rank           int   `json:"rank,omitempty"`
	EnrolledCount  int   `json:"enrolled_count"`
	CompletedCount int   `json:"completed_count"`
}
