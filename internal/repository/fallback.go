package repository

import (
	"context"
	"time"

	"chonta-api/internal/domain"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
)

// FallbackStore serves the primary catalog and absorbs its failures by
// substituting fixture data. This is a resilience policy, not a correctness
// guarantee: callers must tolerate silently substituted data. Domain
// rejections (already enrolled, activity full, not found, ...) come from a
// healthy primary and pass through untouched.
type FallbackStore struct {
	primary     CatalogStore
	fixture     *FixtureStore
	fixtureMode bool
	log         *logger.Logger
}

func NewFallbackStore(primary CatalogStore, fixture *FixtureStore, fixtureMode bool, log *logger.Logger) *FallbackStore {
	return &FallbackStore{
		primary:     primary,
		fixture:     fixture,
		fixtureMode: fixtureMode,
		log:         log,
	}
}

// shouldFallback distinguishes infrastructure failure from a domain
// rejection. Only the former is absorbed.
func shouldFallback(err error) bool {
	if err == nil {
		return false
	}
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeInternal, apperrors.ErrorTypeUpstream:
		return true
	default:
		return false
	}
}

func (f *FallbackStore) warn(op string, err error) {
	f.log.WithError(err).WithField("operation", op).Warn("primary catalog failed, serving fixtures")
}

func fallbackCall[T any](f *FallbackStore, op string, primary func() (T, error), fixture func() (T, error)) (T, error) {
	if f.fixtureMode || f.primary == nil {
		return fixture()
	}
	out, err := primary()
	if shouldFallback(err) {
		f.warn(op, err)
		return fixture()
	}
	return out, err
}

func (f *FallbackStore) GetActivities(ctx context.Context) ([]domain.Activity, error) {
	return fallbackCall(f, "get_activities",
		func() ([]domain.Activity, error) { return f.primary.GetActivities(ctx) },
		func() ([]domain.Activity, error) { return f.fixture.GetActivities(ctx) })
}

func (f *FallbackStore) GetActivity(ctx context.Context, id int) (*domain.Activity, error) {
	return fallbackCall(f, "get_activity",
		func() (*domain.Activity, error) { return f.primary.GetActivity(ctx, id) },
		func() (*domain.Activity, error) { return f.fixture.GetActivity(ctx, id) })
}

func (f *FallbackStore) GetUpcomingActivities(ctx context.Context, after time.Time) ([]domain.Activity, error) {
	return fallbackCall(f, "get_upcoming_activities",
		func() ([]domain.Activity, error) { return f.primary.GetUpcomingActivities(ctx, after) },
		func() ([]domain.Activity, error) { return f.fixture.GetUpcomingActivities(ctx, after) })
}

func (f *FallbackStore) GetUsers(ctx context.Context) ([]domain.User, error) {
	return fallbackCall(f, "get_users",
		func() ([]domain.User, error) { return f.primary.GetUsers(ctx) },
		func() ([]domain.User, error) { return f.fixture.GetUsers(ctx) })
}

func (f *FallbackStore) GetUser(ctx context.Context, address string) (*domain.User, error) {
	return fallbackCall(f, "get_user",
		func() (*domain.User, error) { return f.primary.GetUser(ctx, address) },
		func() (*domain.User, error) { return f.fixture.GetUser(ctx, address) })
}

func (f *FallbackStore) UpsertUser(ctx context.Context, user *domain.User) error {
	_, err := fallbackCall(f, "upsert_user",
		func() (struct{}, error) { return struct{}{}, f.primary.UpsertUser(ctx, user) },
		func() (struct{}, error) { return struct{}{}, f.fixture.UpsertUser(ctx, user) })
	return err
}

func (f *FallbackStore) GetTopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	return fallbackCall(f, "get_top_users",
		func() ([]domain.User, error) { return f.primary.GetTopUsers(ctx, limit) },
		func() ([]domain.User, error) { return f.fixture.GetTopUsers(ctx, limit) })
}

func (f *FallbackStore) EnrollInActivity(ctx context.Context, activityID int, address string) (*domain.EnrollResult, error) {
	return fallbackCall(f, "enroll_in_activity",
		func() (*domain.EnrollResult, error) { return f.primary.EnrollInActivity(ctx, activityID, address) },
		func() (*domain.EnrollResult, error) { return f.fixture.EnrollInActivity(ctx, activityID, address) })
}

func (f *FallbackStore) GetParticipation(ctx context.Context, address string, activityID int) (*domain.Participation, error) {
	return fallbackCall(f, "get_participation",
		func() (*domain.Participation, error) { return f.primary.GetParticipation(ctx, address, activityID) },
		func() (*domain.Participation, error) { return f.fixture.GetParticipation(ctx, address, activityID) })
}

func (f *FallbackStore) SetParticipationStatus(ctx context.Context, participationID string, status domain.ParticipationStatus) error {
	_, err := fallbackCall(f, "set_participation_status",
		func() (struct{}, error) {
			return struct{}{}, f.primary.SetParticipationStatus(ctx, participationID, status)
		},
		func() (struct{}, error) {
			return struct{}{}, f.fixture.SetParticipationStatus(ctx, participationID, status)
		})
	return err
}

func (f *FallbackStore) CompleteActivity(ctx context.Context, participationID string) (*domain.CompleteResult, error) {
	return fallbackCall(f, "complete_activity",
		func() (*domain.CompleteResult, error) { return f.primary.CompleteActivity(ctx, participationID) },
		func() (*domain.CompleteResult, error) { return f.fixture.CompleteActivity(ctx, participationID) })
}

func (f *FallbackStore) Unenroll(ctx context.Context, address string, activityID int) error {
	_, err := fallbackCall(f, "unenroll",
		func() (struct{}, error) { return struct{}{}, f.primary.Unenroll(ctx, address, activityID) },
		func() (struct{}, error) { return struct{}{}, f.fixture.Unenroll(ctx, address, activityID) })
	return err
}

func (f *FallbackStore) GetStuckParticipations(ctx context.Context, olderThan time.Time) ([]domain.Participation, error) {
	return fallbackCall(f, "get_stuck_participations",
		func() ([]domain.Participation, error) { return f.primary.GetStuckParticipations(ctx, olderThan) },
		func() ([]domain.Participation, error) { return f.fixture.GetStuckParticipations(ctx, olderThan) })
}

func (f *FallbackStore) GetRewards(ctx context.Context) ([]domain.Reward, error) {
	return fallbackCall(f, "get_rewards",
		func() ([]domain.Reward, error) { return f.primary.GetRewards(ctx) },
		func() ([]domain.Reward, error) { return f.fixture.GetRewards(ctx) })
}

func (f *FallbackStore) GetReward(ctx context.Context, id int) (*domain.Reward, error) {
	return fallbackCall(f, "get_reward",
		func() (*domain.Reward, error) { return f.primary.GetReward(ctx, id) },
		func() (*domain.Reward, error) { return f.fixture.GetReward(ctx, id) })
}

func (f *FallbackStore) RedeemReward(ctx context.Context, rewardID int, address string) (*domain.Redemption, error) {
	return fallbackCall(f, "redeem_reward",
		func() (*domain.Redemption, error) { return f.primary.RedeemReward(ctx, rewardID, address) },
		func() (*domain.Redemption, error) { return f.fixture.RedeemReward(ctx, rewardID, address) })
}

func (f *FallbackStore) GetStats(ctx context.Context) (*domain.Stats, error) {
	return fallbackCall(f, "get_stats",
		func() (*domain.Stats, error) { return f.primary.GetStats(ctx) },
		func() (*domain.Stats, error) { return f.fixture.GetStats(ctx) })
}

func (f *FallbackStore) ReconcileActivities(ctx context.Context) error {
	_, err := fallbackCall(f, "reconcile_activities",
		func() (struct{}, error) { return struct{}{}, f.primary.ReconcileActivities(ctx) },
		func() (struct{}, error) { return struct{}{}, f.fixture.ReconcileActivities(ctx) })
	return err
}
