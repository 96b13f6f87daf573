package worker

import (
	"context"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/internal/service"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"

	"github.com/go-co-op/gocron/v2"
)

const (
	reconcileInterval = 1 * time.Minute
	boardInterval     = 5 * time.Minute

	// A saga record still in an intermediate state after this long is
	// considered stuck and rolled forward.
	stuckThreshold = 5 * time.Minute

	// Cross-instance lock so only one replica sweeps at a time.
	runLockKey = "worker:reconcile"
)

// Worker runs the background maintenance jobs: activity fill-count
// reconciliation, stuck-saga sweeps, and leaderboard rebuilds.
type Worker struct {
	catalog   repository.CatalogStore
	board     *service.LeaderboardService
	redis     *redis.Client
	scheduler gocron.Scheduler
	log       *logger.Logger
}

// New creates the worker. Jobs are registered on Start.
func New(catalog repository.CatalogStore, board *service.LeaderboardService, redisClient *redis.Client, log *logger.Logger) (*Worker, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Worker{
		catalog:   catalog,
		board:     board,
		redis:     redisClient,
		scheduler: scheduler,
		log:       log,
	}, nil
}

// Start registers the jobs and begins the schedule.
func (w *Worker) Start(ctx context.Context) error {
	if _, err := w.scheduler.NewJob(
		gocron.DurationJob(reconcileInterval),
		gocron.NewTask(func() { w.reconcile(ctx) }),
	); err != nil {
		return err
	}

	if _, err := w.scheduler.NewJob(
		gocron.DurationJob(boardInterval),
		gocron.NewTask(func() { w.rebuildBoard(ctx) }),
	); err != nil {
		return err
	}

	w.scheduler.Start()
	w.log.Info("background worker started")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (w *Worker) Stop(ctx context.Context) error {
	if err := w.scheduler.Shutdown(); err != nil {
		w.log.WithError(err).Error("scheduler shutdown failed")
		return err
	}
	w.log.Info("background worker stopped")
	return nil
}

// reconcile re-derives activity fill counts and sweeps stuck saga records.
// Runs under a cross-instance lock.
func (w *Worker) reconcile(ctx context.Context) {
	release, ok := w.lockRun(ctx)
	if !ok {
		return
	}
	defer release()

	if err := w.catalog.ReconcileActivities(ctx); err != nil {
		w.log.WithError(err).Error("activity reconciliation failed")
	}

	stuck, err := w.catalog.GetStuckParticipations(ctx, time.Now().Add(-stuckThreshold))
	if err != nil {
		w.log.WithError(err).Error("stuck participation query failed")
		return
	}

	for _, p := range stuck {
		w.rollForward(ctx, p)
	}
	if len(stuck) > 0 {
		w.log.WithField("count", len(stuck)).Info("stuck participations swept")
	}
}

// lockRun takes the reconcile run lock. The TTL frees the lock on its own if
// the holder dies mid-run.
func (w *Worker) lockRun(ctx context.Context) (func(), bool) {
	if w.redis == nil {
		return func() {}, true
	}

	key := w.redis.KeyBuilder.KeyIdempotency(runLockKey)
	acquired, err := w.redis.SetNX(ctx, key, "1", redis.TTLIdempotency)
	if err != nil {
		w.log.WithError(err).Warn("failed to take reconcile lock, skipping run")
		return nil, false
	}
	if !acquired {
		w.log.Debug("reconcile lock held elsewhere, skipping run")
		return nil, false
	}

	return func() {
		if err := w.redis.Delete(ctx, key); err != nil {
			w.log.WithError(err).Warn("failed to release reconcile lock")
		}
	}, true
}

// rollForward pushes a stuck saga record to its next stable state. The
// intermediate state proves the previous step committed, so forward is
// always the safe direction.
func (w *Worker) rollForward(ctx context.Context, p domain.Participation) {
	switch p.Status {
	case domain.ParticipationEnrolling:
		if err := w.catalog.SetParticipationStatus(ctx, p.ID, domain.ParticipationEnrolled); err != nil {
			w.log.WithError(err).WithField("participation_id", p.ID).Error("failed to settle enrolling record")
		}
	case domain.ParticipationCompleting:
		if _, err := w.catalog.CompleteActivity(ctx, p.ID); err != nil {
			w.log.WithError(err).WithField("participation_id", p.ID).Error("failed to settle completing record")
		}
	}
}

func (w *Worker) rebuildBoard(ctx context.Context) {
	if err := w.board.Rebuild(ctx); err != nil {
		w.log.WithError(err).Error("leaderboard rebuild failed")
	}
}
