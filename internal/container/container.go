package container

import (
	"context"

	"chonta-api/internal/config"
	"chonta-api/internal/repository"
	"chonta-api/internal/service"
	"chonta-api/internal/statestore"
	"chonta-api/pkg/database"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"
)

// Services groups the application services
type Services struct {
	Wallet        *service.WalletService
	Activity      *service.ActivityService
	Participation *service.ParticipationService
	Voucher       *service.VoucherService
	Reward        *service.RewardService
	Board         *service.LeaderboardService
}

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Catalog     repository.CatalogStore
	Wallets     *statestore.Store
	Services    *Services
}

// New creates a new dependency injection container. The catalog store is
// Postgres wrapped in the fixture fallback; without a database URL (or with
// FIXTURE_MODE on) fixtures serve everything.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
	if err != nil {
		return nil, err
	}

	fixtures := repository.NewFixtureStore()

	var db *database.PostgresDB
	var catalog repository.CatalogStore = fixtures
	if cfg.DatabaseURL != "" && !cfg.FixtureMode {
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("database unavailable, serving fixtures only")
		} else {
			primary := repository.NewPostgresStore(db)
			catalog = repository.NewFallbackStore(primary, fixtures, false, log)
		}
	} else {
		log.Info("fixture mode: catalog served from fixtures")
	}

	wallets := statestore.New(redisClient)
	board := service.NewLeaderboardService(catalog, redisClient, log)
	participation := service.NewParticipationService(catalog, wallets, board, log)

	services := &Services{
		Wallet:        service.NewWalletService(catalog, wallets, board, cfg.SessionSecret, log),
		Activity:      service.NewActivityService(catalog, redisClient, log),
		Participation: participation,
		Voucher:       service.NewVoucherService(catalog, wallets, participation, service.DefaultCodebook(), redisClient, cfg.VoucherSecret, log),
		Reward:        service.NewRewardService(catalog, wallets, board, log),
		Board:         board,
	}

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Catalog:     catalog,
		Wallets:     wallets,
		Services:    services,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasDatabase returns true when the Postgres pool is connected
func (c *Container) HasDatabase() bool {
	return c.DB != nil
}
