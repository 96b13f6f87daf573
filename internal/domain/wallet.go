package domain

import "time"

// WalletEnrollmentStatus is the two-value status stored in the wallet
// snapshot. The richer saga states live on the catalog Participation; the
// snapshot keeps the shape existing front-end clients persist.
type WalletEnrollmentStatus string

const (
	WalletEnrolled  WalletEnrollmentStatus = "enrolled"
	WalletCompleted WalletEnrollmentStatus = "completed"
)

// WalletUser is the identity block inside a wallet snapshot.
type WalletUser struct {
	Address  string    `json:"address"`
	Name     string    `json:"name"`
	Tier     Tier      `json:"tier"`
	JoinedAt time.Time `json:"joined_at"`
}

// WalletEnrollment is one activity record inside a wallet snapshot.
type WalletEnrollment struct {
	ActivityID   int                    `json:"id"`
	Name         string                 `json:"name,omitempty"`
	Status       WalletEnrollmentStatus `json:"status"`
	Completed    bool                   `json:"completed"`
	TokensEarned int                    `json:"tokens_earned"`
	EnrolledAt   time.Time              `json:"enrolled_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// WalletState is the persisted `state` object: user identity, token balance,
// and the activity enrollment list.
type WalletState struct {
	User       *WalletUser        `json:"user"`
	Tokens     int                `json:"tokens"`
	Activities []WalletEnrollment `json:"activities"`
}

// WalletSnapshot is the full persisted value. Version is a monotonic
// revision counter; every save is a compare-and-swap against it.
type WalletSnapshot struct {
	State   WalletState `json:"state"`
	Version int64       `json:"version"`
}
