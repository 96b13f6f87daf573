package repository

import (
	"context"
	"time"

	"chonta-api/internal/domain"
)

// CatalogStore is the authoritative source for activities, users, rewards,
// and participation records. Two implementations exist: PostgresStore and the
// in-memory FixtureStore; FallbackStore composes them so a primary failure
// degrades to fixture data instead of an error page.
type CatalogStore interface {
	// Activities
	GetActivities(ctx context.Context) ([]domain.Activity, error)
	GetActivity(ctx context.Context, id int) (*domain.Activity, error)
	GetUpcomingActivities(ctx context.Context, after time.Time) ([]domain.Activity, error)

	// Users
	GetUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, address string) (*domain.User, error)
	UpsertUser(ctx context.Context, user *domain.User) error
	GetTopUsers(ctx context.Context, limit int) ([]domain.User, error)

	// Participation lifecycle. EnrollInActivity reports a duplicate as an
	// unsuccessful result, not an error.
	EnrollInActivity(ctx context.Context, activityID int, address string) (*domain.EnrollResult, error)
	GetParticipation(ctx context.Context, address string, activityID int) (*domain.Participation, error)
	SetParticipationStatus(ctx context.Context, participationID string, status domain.ParticipationStatus) error
	CompleteActivity(ctx context.Context, participationID string) (*domain.CompleteResult, error)
	Unenroll(ctx context.Context, address string, activityID int) error
	GetStuckParticipations(ctx context.Context, olderThan time.Time) ([]domain.Participation, error)

	// Rewards
	GetRewards(ctx context.Context) ([]domain.Reward, error)
	GetReward(ctx context.Context, id int) (*domain.Reward, error)
	RedeemReward(ctx context.Context, rewardID int, address string) (*domain.Redemption, error)

	// Aggregates
	GetStats(ctx context.Context) (*domain.Stats, error)

	// ReconcileActivities re-derives every activity's fill count and status
	// from its participation records. Run periodically by the worker.
	ReconcileActivities(ctx context.Context) error
}
