package domain

import "time"

// BoardEntry is one ranked row of the token leaderboard.
type BoardEntry struct {
	Rank    int    `json:"rank"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Balance int    `json:"balance"`
	Tier    Tier   `json:"tier"`
}

// Leaderboard is the ranked listing plus its freshness stamp.
type Leaderboard struct {
	Entries    []BoardEntry `json:"entries"`
	TotalUsers int          `json:"total_users"`
	LastUpdate time.Time    `json:"last_update"`
}

// Stats is the platform-wide summary.
type Stats struct {
	TotalUsers          int       `json:"total_users"`
	TotalActivities     int       `json:"total_activities"`
	TotalParticipations int       `json:"total_participations"`
	CompletedCount      int       `json:"completed_count"`
	TokensDistributed   int       `json:"tokens_distributed"`
	LastUpdate          time.Time `json:"last_update"`
}
