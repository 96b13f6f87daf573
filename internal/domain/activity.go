package domain

import "time"

// Category classifies civic activities.
type Category string

const (
	CategoryCleanup       Category = "cleanup"
	CategoryEducation     Category = "education"
	CategoryReforestation Category = "reforestation"
)

// ActivityStatus is derived from the fill level, never set independently.
type ActivityStatus string

const (
	ActivityAvailable ActivityStatus = "available"
	ActivityFull      ActivityStatus = "full"
)

// Activity is a civic event participants can enroll in.
// Invariant: CurrentParticipants <= MaxParticipants, and Status is
// ActivityFull exactly when the two are equal.
type Activity struct {
	ID                  int            `json:"id"`
	Name                string         `json:"name"`
	Category            Category       `json:"category"`
	Date                time.Time      `json:"date"`
	Location            string         `json:"location"`
	MaxParticipants     int            `json:"max_participants"`
	CurrentParticipants int            `json:"current_participants"`
	TokensReward        int            `json:"tokens_reward"`
	Status              ActivityStatus `json:"status"`
	Organizer           string         `json:"organizer"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// AtCapacity reports whether the activity cannot take another participant.
func (a *Activity) AtCapacity() bool {
	return a.CurrentParticipants >= a.MaxParticipants
}

// RefreshStatus re-derives Status from the fill level and clamps the count
// into [0, MaxParticipants].
func (a *Activity) RefreshStatus() {
	if a.CurrentParticipants < 0 {
		a.CurrentParticipants = 0
	}
	if a.CurrentParticipants > a.MaxParticipants {
		a.CurrentParticipants = a.MaxParticipants
	}
	if a.CurrentParticipants == a.MaxParticipants {
		a.Status = ActivityFull
	} else {
		a.Status = ActivityAvailable
	}
}
