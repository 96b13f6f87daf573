package service

import (
	"context"
	"encoding/json"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	apperrors "chonta-api/pkg/errors"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"
)

// ActivityService serves the activity catalog, cache-aside over Redis.
type ActivityService struct {
	catalog repository.CatalogStore
	redis   *redis.Client
	log     *logger.Logger
}

func NewActivityService(catalog repository.CatalogStore, redisClient *redis.Client, log *logger.Logger) *ActivityService {
	return &ActivityService{
		catalog: catalog,
		redis:   redisClient,
		log:     log,
	}
}

// List returns every activity.
func (s *ActivityService) List(ctx context.Context) ([]domain.Activity, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyActivitiesAll()); err == nil && cached != "" {
			var activities []domain.Activity
			if err := json.Unmarshal([]byte(cached), &activities); err == nil {
				return activities, nil
			}
		}
	}

	activities, err := s.catalog.GetActivities(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(activities); err == nil {
			_ = s.redis.Set(ctx, s.redis.KeyBuilder.KeyActivitiesAll(), string(payload), redis.TTLActivities)
		}
	}
	return activities, nil
}

// Get returns one activity.
func (s *ActivityService) Get(ctx context.Context, id int) (*domain.Activity, error) {
	activity, err := s.catalog.GetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, apperrors.NewNotFoundError("activity not found")
	}
	return activity, nil
}

// Upcoming returns activities that have not happened yet, soonest first.
func (s *ActivityService) Upcoming(ctx context.Context) ([]domain.Activity, error) {
	return s.catalog.GetUpcomingActivities(ctx, time.Now())
}

// InvalidateCache drops the cached listing after catalog mutation.
func (s *ActivityService) InvalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Delete(ctx, s.redis.KeyBuilder.KeyActivitiesAll()); err != nil {
		s.log.WithError(err).Warn("failed to invalidate activity cache")
	}
}
