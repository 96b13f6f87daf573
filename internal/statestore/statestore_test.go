package statestore

import (
	"context"
	"testing"

	"chonta-api/internal/domain"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "0xwallet1"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClientFromAddr(mr.Addr(), "staging", logger.NewNop().Logger)
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestStore_LoadEmptyWallet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	snap, err := s.Load(ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, snap.State.User)
	assert.Equal(t, 0, snap.State.Tokens)
	assert.Empty(t, snap.State.Activities)
	assert.Equal(t, int64(0), snap.Version)
}

func TestStore_SaveBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	snap, err := s.Load(ctx, addr)
	require.NoError(t, err)
	snap.State.Tokens = 10

	require.NoError(t, s.Save(ctx, addr, snap))
	assert.Equal(t, int64(1), snap.Version)

	reloaded, err := s.Load(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.State.Tokens)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestStore_StaleSaveConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Load(ctx, addr)
	require.NoError(t, err)
	second, err := s.Load(ctx, addr)
	require.NoError(t, err)

	first.State.Tokens = 5
	require.NoError(t, s.Save(ctx, addr, first))

	// The second writer still holds version 0; its save must lose instead
	// of clobbering the first write.
	second.State.Tokens = 99
	err = s.Save(ctx, addr, second)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	reloaded, err := s.Load(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.State.Tokens)
}

func TestStore_MutateRetriesThroughConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Interleave an external write during the first Mutate attempt by
	// mutating from inside fn on the first call only.
	calls := 0
	snap, err := s.Mutate(ctx, addr, func(st *domain.WalletState) error {
		calls++
		if calls == 1 {
			_, err := s.AddTokens(ctx, addr, 3)
			require.NoError(t, err)
		}
		st.Tokens += 7
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 10, snap.State.Tokens)
}

func TestStore_MutateExhaustionIsConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Every attempt loses to an interleaved write, so the retry budget runs
	// out. That surfaces as a conflict, not an internal error.
	calls := 0
	_, err := s.Mutate(ctx, addr, func(st *domain.WalletState) error {
		calls++
		_, err := s.AddTokens(ctx, addr, 1)
		require.NoError(t, err)
		st.Tokens += 100
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, mutateAttempts, calls)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.ErrorIs(t, err, ErrRevisionConflict)
}

func TestStore_SetUserNoOpOnSameAddress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user := &domain.WalletUser{Address: addr, Name: "Vale", Tier: domain.TierNuevo}
	snap, err := s.SetUser(ctx, addr, user)
	require.NoError(t, err)
	v1 := snap.Version

	// Same address: no write, version unchanged.
	snap, err = s.SetUser(ctx, addr, &domain.WalletUser{Address: addr, Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, v1, snap.Version)
	assert.Equal(t, "Vale", snap.State.User.Name)
}

func TestStore_UpsertEnrollmentDefaultsAndMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	snap, err := s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 1, Name: "Limpieza"})
	require.NoError(t, err)
	require.Len(t, snap.State.Activities, 1)
	rec := snap.State.Activities[0]
	assert.Equal(t, domain.WalletEnrolled, rec.Status)
	assert.False(t, rec.Completed)
	assert.False(t, rec.EnrolledAt.IsZero())

	// Upsert by the same id merges, never duplicates.
	snap, err = s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 1, Name: "Limpieza del Río"})
	require.NoError(t, err)
	require.Len(t, snap.State.Activities, 1)
	assert.Equal(t, "Limpieza del Río", snap.State.Activities[0].Name)
}

func TestStore_CompleteEnrollmentCreditsAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SetUser(ctx, addr, &domain.WalletUser{Address: addr, Tier: domain.TierNuevo})
	require.NoError(t, err)
	_, err = s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 1})
	require.NoError(t, err)

	snap, err := s.CompleteEnrollment(ctx, addr, 1, 60)
	require.NoError(t, err)
	rec := snap.State.Activities[0]
	assert.True(t, rec.Completed)
	assert.Equal(t, domain.WalletCompleted, rec.Status)
	assert.Equal(t, 60, rec.TokensEarned)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, 60, snap.State.Tokens)
	assert.Equal(t, domain.TierActivo, snap.State.User.Tier)

	_, err = s.CompleteEnrollment(ctx, addr, 99, 10)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestStore_IsEnrolledCountsCompleted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	enrolled, err := s.IsEnrolled(ctx, addr, 1)
	require.NoError(t, err)
	assert.False(t, enrolled)

	_, err = s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 1})
	require.NoError(t, err)
	_, err = s.CompleteEnrollment(ctx, addr, 1, 15)
	require.NoError(t, err)

	// Completed records still count as enrolled; replay blocking depends
	// on this.
	enrolled, err = s.IsEnrolled(ctx, addr, 1)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestStore_FilteredViews(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 1})
	require.NoError(t, err)
	_, err = s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 2})
	require.NoError(t, err)
	_, err = s.CompleteEnrollment(ctx, addr, 2, 20)
	require.NoError(t, err)

	enrolled, err := s.EnrolledActivities(ctx, addr)
	require.NoError(t, err)
	require.Len(t, enrolled, 1)
	assert.Equal(t, 1, enrolled[0].ActivityID)

	completed, err := s.CompletedActivities(ctx, addr)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 2, completed[0].ActivityID)
}

func TestStore_SubtractTokensFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AddTokens(ctx, addr, 30)
	require.NoError(t, err)

	snap, err := s.SubtractTokens(ctx, addr, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.State.Tokens)

	snap, err = s.SubtractTokens(ctx, addr, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.State.Tokens)
}

func TestStore_ClearResetsEverything(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SetUser(ctx, addr, &domain.WalletUser{Address: addr, Name: "Vale"})
	require.NoError(t, err)
	_, err = s.UpsertEnrollment(ctx, addr, domain.WalletEnrollment{ActivityID: 1})
	require.NoError(t, err)
	_, err = s.AddTokens(ctx, addr, 50)
	require.NoError(t, err)

	_, err = s.Clear(ctx, addr)
	require.NoError(t, err)

	snap, err := s.Load(ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, snap.State.User)
	assert.Equal(t, 0, snap.State.Tokens)
	assert.Empty(t, snap.State.Activities)

	enrolled, err := s.IsEnrolled(ctx, addr, 1)
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestStore_SnapshotWireFormat(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClientFromAddr(mr.Addr(), "staging", logger.NewNop().Logger)
	t.Cleanup(func() { _ = client.Close() })
	s := New(client)

	_, err := s.AddTokens(ctx, addr, 12)
	require.NoError(t, err)

	raw, err := mr.Get("staging:wallet:" + addr + ":snapshot")
	require.NoError(t, err)
	// The durable layout is {"state":{...},"version":N}.
	assert.Contains(t, raw, `"state"`)
	assert.Contains(t, raw, `"tokens":12`)
	assert.Contains(t, raw, `"version":1`)

	rev, err := mr.Get("staging:wallet:" + addr + ":rev")
	require.NoError(t, err)
	assert.Equal(t, "1", rev)
}
