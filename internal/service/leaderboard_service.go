package service

import (
	"context"
	"encoding/json"
	"time"

	"chonta-api/internal/domain"
	"chonta-api/internal/repository"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"
)

// LeaderboardService ranks wallets by token balance. The ranking lives in a
// Redis sorted set updated on every credit/debit and rebuilt periodically
// from the catalog; when Redis is unavailable it falls back to a catalog
// query.
type LeaderboardService struct {
	catalog repository.CatalogStore
	redis   *redis.Client
	log     *logger.Logger
}

func NewLeaderboardService(catalog repository.CatalogStore, redisClient *redis.Client, log *logger.Logger) *LeaderboardService {
	return &LeaderboardService{
		catalog: catalog,
		redis:   redisClient,
		log:     log,
	}
}

// SetScore records a wallet's balance in the ranking.
func (s *LeaderboardService) SetScore(ctx context.Context, address, name string, balance int) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.ZAdd(ctx, s.redis.KeyBuilder.KeyBoardTokens(), float64(balance), address); err != nil {
		return err
	}
	if name != "" {
		return s.redis.HSet(ctx, s.redis.KeyBuilder.KeyBoardNames(), address, name)
	}
	return nil
}

// Rank returns a wallet's 1-based leaderboard position, or 0 when the wallet
// has no recorded score.
func (s *LeaderboardService) Rank(ctx context.Context, address string) (int, error) {
	if s.redis == nil {
		return 0, nil
	}
	rank, err := s.redis.ZRevRank(ctx, s.redis.KeyBuilder.KeyBoardTokens(), address)
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}

// Top returns the highest-balance wallets, best first.
func (s *LeaderboardService) Top(ctx context.Context, limit int) (*domain.Leaderboard, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.redis != nil {
		entries, err := s.topFromRedis(ctx, limit)
		if err == nil && len(entries) > 0 {
			return &domain.Leaderboard{
				Entries:    entries,
				TotalUsers: len(entries),
				LastUpdate: time.Now(),
			}, nil
		}
		if err != nil {
			s.log.WithError(err).Warn("leaderboard redis read failed, falling back to catalog")
		}
	}

	users, err := s.catalog.GetTopUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.BoardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, domain.BoardEntry{
			Rank:    i + 1,
			Address: u.Address,
			Name:    u.Name,
			Balance: u.Balance,
			Tier:    domain.TierForBalance(u.Balance),
		})
	}
	return &domain.Leaderboard{
		Entries:    entries,
		TotalUsers: len(entries),
		LastUpdate: time.Now(),
	}, nil
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, limit int) ([]domain.BoardEntry, error) {
	zs, err := s.redis.ZRevRangeWithScores(ctx, s.redis.KeyBuilder.KeyBoardTokens(), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	names, err := s.redis.HGetAll(ctx, s.redis.KeyBuilder.KeyBoardNames())
	if err != nil {
		names = map[string]string{}
	}

	entries := make([]domain.BoardEntry, 0, len(zs))
	for i, z := range zs {
		address, _ := z.Member.(string)
		balance := int(z.Score)
		entries = append(entries, domain.BoardEntry{
			Rank:    i + 1,
			Address: address,
			Name:    names[address],
			Balance: balance,
			Tier:    domain.TierForBalance(balance),
		})
	}
	return entries, nil
}

// Rebuild reloads the ranking from the catalog. Run by the refresh worker.
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	users, err := s.catalog.GetUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := s.SetScore(ctx, u.Address, u.Name, u.Balance); err != nil {
			return err
		}
	}
	s.log.WithField("users", len(users)).Debug("leaderboard rebuilt")
	return nil
}

// Stats returns the platform summary, cache-aside with a short TTL.
func (s *LeaderboardService) Stats(ctx context.Context) (*domain.Stats, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyStats()); err == nil && cached != "" {
			var stats domain.Stats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.catalog.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(stats); err == nil {
			_ = s.redis.Set(ctx, s.redis.KeyBuilder.KeyStats(), string(payload), redis.TTLStats)
		}
	}
	return stats, nil
}
