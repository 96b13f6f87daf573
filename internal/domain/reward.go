package domain

import "time"

// Reward is a catalog item a participant can spend tokens on.
type Reward struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cost        int       `json:"cost"`
	Category    string    `json:"category"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Redemption records a spent reward.
type Redemption struct {
	ID          string    `json:"id"`
	RewardID    int       `json:"reward_id"`
	UserAddress string    `json:"user_address"`
	Cost        int       `json:"cost"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}

// RedeemRewardResponse is the HTTP response for a reward redemption.
type RedeemRewardResponse struct {
	RedemptionID string    `json:"redemption_id"`
	RewardID     int       `json:"reward_id"`
	RewardName   string    `json:"reward_name"`
	Cost         int       `json:"cost"`
	NewBalance   int       `json:"new_balance"`
	RedeemedAt   time.Time `json:"redeemed_at"`
	Message      string    `json:"message"`
}
