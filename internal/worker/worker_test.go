package worker

import (
	"context"
	"testing"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0x1111111111111111111111111111111111111111"

func TestWorker_SweepsStuckEnrolling(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	catalog := repository.NewFixtureStoreAt(func() time.Time { return past })

	// A raw catalog enroll is exactly the crashed-saga shape: the record
	// sits in enrolling with no promotion ever coming.
	result, err := catalog.EnrollInActivity(ctx, 1, testAddr)
	require.NoError(t, err)
	require.True(t, result.Success)

	w, err := New(catalog, nil, nil, logger.NewNop())
	require.NoError(t, err)
	w.reconcile(ctx)

	p, err := catalog.GetParticipation(ctx, testAddr, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.ParticipationEnrolled, p.Status)
}

func TestWorker_SweepsStuckCompleting(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	catalog := repository.NewFixtureStoreAt(func() time.Time { return past })

	result, err := catalog.EnrollInActivity(ctx, 1, testAddr)
	require.NoError(t, err)
	require.NoError(t, catalog.SetParticipationStatus(ctx, result.ParticipationID, domain.ParticipationCompleting))

	w, err := New(catalog, nil, nil, logger.NewNop())
	require.NoError(t, err)
	w.reconcile(ctx)

	p, err := catalog.GetParticipation(ctx, testAddr, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.ParticipationCompleted, p.Status)
	assert.Equal(t, 15, p.TokensEarned)
}

func TestWorker_ReconcileLockSkipsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	catalog := repository.NewFixtureStoreAt(func() time.Time { return past })

	mr := miniredis.RunT(t)
	log := logger.NewNop()
	client := redis.NewClientFromAddr(mr.Addr(), "staging", log.Logger)
	t.Cleanup(func() { _ = client.Close() })

	result, err := catalog.EnrollInActivity(ctx, 1, testAddr)
	require.NoError(t, err)
	require.True(t, result.Success)

	w, err := New(catalog, nil, client, log)
	require.NoError(t, err)

	// Another instance holds the lock: the sweep is skipped.
	lockKey := client.KeyBuilder.KeyIdempotency(runLockKey)
	held, err := client.SetNX(ctx, lockKey, "1", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	w.reconcile(ctx)
	p, err := catalog.GetParticipation(ctx, testAddr, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationEnrolling, p.Status)

	// Lock gone: the run sweeps and releases the lock behind itself.
	require.NoError(t, client.Delete(ctx, lockKey))
	w.reconcile(ctx)
	p, err = catalog.GetParticipation(ctx, testAddr, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationEnrolled, p.Status)

	exists, err := client.Exists(ctx, lockKey)
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestWorker_LeavesFreshRecordsAlone(t *testing.T) {
	ctx := context.Background()
	catalog := repository.NewFixtureStore()

	result, err := catalog.EnrollInActivity(ctx, 1, testAddr)
	require.NoError(t, err)
	require.NoError(t, catalog.SetParticipationStatus(ctx, result.ParticipationID, domain.ParticipationCompleting))

	w, err := New(catalog, nil, nil, logger.NewNop())
	require.NoError(t, err)
	w.reconcile(ctx)

	// Just-touched records are inside the threshold and untouched.
	p, err := catalog.GetParticipation(ctx, testAddr, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ParticipationCompleting, p.Status)
}
