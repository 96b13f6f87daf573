package domain

import "time"

// ParticipationStatus tracks the enrollment saga. The two intermediate
// states exist so a crash between steps leaves a resumable record instead of
// a silently stuck one; the reconcile worker sweeps them.
type ParticipationStatus string

const (
	ParticipationEnrolling  ParticipationStatus = "enrolling"
	ParticipationEnrolled   ParticipationStatus = "enrolled"
	ParticipationCompleting ParticipationStatus = "completing"
	ParticipationCompleted  ParticipationStatus = "completed"
)

// Participation is the catalog-side record of a user's enrollment in an
// activity. At most one exists per (user, activity) pair.
type Participation struct {
	ID           string              `json:"id"`
	ActivityID   int                 `json:"activity_id"`
	UserAddress  string              `json:"user_address"`
	Status       ParticipationStatus `json:"status"`
	TokensEarned int                 `json:"tokens_earned"`
	EnrolledAt   time.Time           `json:"enrolled_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// EnrollResult is returned by the catalog enroll operation. Duplicate
// enrollment is a result, not an exception, mirroring how callers consume it.
type EnrollResult struct {
	Success         bool   `json:"success"`
	ParticipationID string `json:"participation_id,omitempty"`
	TokensEarned    int    `json:"tokens_earned"`
	Message         string `json:"message"`
}

// CompleteResult is returned by the catalog complete operation.
type CompleteResult struct {
	Success      bool   `json:"success"`
	TokensEarned int    `json:"tokens_earned"`
	Message      string `json:"message"`
}

// EnrollResponse is the HTTP response for an enrollment.
type EnrollResponse struct {
	ParticipationID string    `json:"participation_id"`
	ActivityID      int       `json:"activity_id"`
	ActivityName    string    `json:"activity_name"`
	EnrolledAt      time.Time `json:"enrolled_at"`
	Message         string    `json:"message"`
}

// CompleteResponse is the HTTP response for a completion.
type CompleteResponse struct {
	ActivityID   int       `json:"activity_id"`
	TokensEarned int       `json:"tokens_earned"`
	NewBalance   int       `json:"new_balance"`
	Tier         Tier      `json:"tier"`
	CompletedAt  time.Time `json:"completed_at"`
	Message      string    `json:"message"`
}
