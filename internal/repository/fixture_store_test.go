package repository

import (
	"context"
	"testing"
	"time"

	"chonta-api/internal/domain"
	apperrors "chonta-api/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0xabc123"

func TestFixtureStore_EnrollInActivity(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	res, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ParticipationID)
	assert.Equal(t, 0, res.TokensEarned)

	activity, err := store.GetActivity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 13, activity.CurrentParticipants)

	// The record opens in the intermediate saga state; the service promotes
	// it to enrolled once the wallet-side write has landed.
	p, err := store.GetParticipation(ctx, testAddress, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.ParticipationEnrolling, p.Status)
}

func TestFixtureStore_EnrollDuplicateFailsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	first, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "already enrolled in this activity", second.Message)

	// No duplicate record, no double-count.
	activity, err := store.GetActivity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 13, activity.CurrentParticipants)
}

func TestFixtureStore_EnrollFullActivity(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	// Activity 2 is seeded at capacity.
	activity, err := store.GetActivity(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, domain.ActivityFull, activity.Status)

	_, err = store.EnrollInActivity(ctx, 2, testAddress)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeActivityFull))
}

func TestFixtureStore_CapacityInvariantUnderFill(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	// Fill activity 1 from its seeded count to the brim, one address each.
	activity, err := store.GetActivity(ctx, 1)
	require.NoError(t, err)

	free := activity.MaxParticipants - activity.CurrentParticipants
	for i := 0; i < free; i++ {
		res, err := store.EnrollInActivity(ctx, 1, addressFor(i))
		require.NoError(t, err)
		require.True(t, res.Success)

		a, err := store.GetActivity(ctx, 1)
		require.NoError(t, err)
		assert.LessOrEqual(t, a.CurrentParticipants, a.MaxParticipants)
		wantFull := a.CurrentParticipants == a.MaxParticipants
		assert.Equal(t, wantFull, a.Status == domain.ActivityFull)
	}

	_, err = store.EnrollInActivity(ctx, 1, "0xoverflow")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeActivityFull))

	a, err := store.GetActivity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, a.MaxParticipants, a.CurrentParticipants)
	assert.Equal(t, domain.ActivityFull, a.Status)
}

func TestFixtureStore_CompleteActivity(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	res, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)

	done, err := store.CompleteActivity(ctx, res.ParticipationID)
	require.NoError(t, err)
	assert.True(t, done.Success)
	assert.Equal(t, 15, done.TokensEarned)

	p, err := store.GetParticipation(ctx, testAddress, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationCompleted, p.Status)
	assert.Equal(t, 15, p.TokensEarned)
	assert.NotNil(t, p.CompletedAt)

	// Completing twice is rejected.
	_, err = store.CompleteActivity(ctx, res.ParticipationID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAlreadyCompleted))
}

func TestFixtureStore_Unenroll(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	_, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)

	require.NoError(t, store.Unenroll(ctx, testAddress, 1))

	p, err := store.GetParticipation(ctx, testAddress, 1)
	require.NoError(t, err)
	assert.Nil(t, p)

	activity, err := store.GetActivity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 12, activity.CurrentParticipants)

	err = store.Unenroll(ctx, testAddress, 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestFixtureStore_GetUpcomingActivities(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	upcoming, err := store.GetUpcomingActivities(ctx, time.Now())
	require.NoError(t, err)

	// Activity 5 is seeded in the past and must not appear.
	for _, a := range upcoming {
		assert.NotEqual(t, 5, a.ID)
	}
	for i := 1; i < len(upcoming); i++ {
		assert.False(t, upcoming[i].Date.Before(upcoming[i-1].Date), "upcoming must be soonest first")
	}
}

func TestFixtureStore_GetStats(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	res, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)
	_, err = store.CompleteActivity(ctx, res.ParticipationID)
	require.NoError(t, err)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalUsers)
	assert.Equal(t, 5, stats.TotalActivities)
	assert.Equal(t, 1, stats.TotalParticipations)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 15, stats.TokensDistributed)
}

func TestFixtureStore_GetStuckParticipations(t *testing.T) {
	ctx := context.Background()
	store := NewFixtureStore()

	res, err := store.EnrollInActivity(ctx, 1, testAddress)
	require.NoError(t, err)
	require.NoError(t, store.SetParticipationStatus(ctx, res.ParticipationID, domain.ParticipationCompleting))

	stuck, err := store.GetStuckParticipations(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, res.ParticipationID, stuck[0].ID)

	// A completed record is never stuck.
	_, err = store.CompleteActivity(ctx, res.ParticipationID)
	require.NoError(t, err)
	stuck, err = store.GetStuckParticipations(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stuck)
}

func addressFor(i int) string {
	return "0xfill" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26))
}
