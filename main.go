package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"chonta-api/internal/config"
	"chonta-api/internal/container"
	"chonta-api/internal/handler"
	"chonta-api/internal/middleware"
	"chonta-api/internal/worker"
	"chonta-api/pkg/database"
	"chonta-api/pkg/logger"
	"chonta-api/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	worker      *worker.Worker
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Stop the background worker
	if r.worker != nil {
		r.log.Info("Stopping background worker...")
		if err := r.worker.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("worker shutdown: %w", err))
		}
	}

	// Close Redis connection with health check
	if r.redisClient != nil {
		r.log.Info("Closing Redis connection...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := r.redisClient.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Redis health check failed before closing")
		}
		healthCancel()

		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	// Close database connection pool with health check
	if r.db != nil {
		r.log.Info("Closing database connection pool...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := r.db.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Database health check failed before closing")
		}
		healthCancel()

		r.db.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errs) > 0 {
		r.log.WithField("error_count", len(errs)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":         cfg.Port,
		"log_level":    cfg.LogLevel,
		"environment":  cfg.Environment,
		"fixture_mode": cfg.FixtureMode,
	}).Info("Starting chonta-api server")

	if cfg.SessionSecret == "" || cfg.VoucherSecret == "" {
		log.Fatal("SESSION_SECRET and VOUCHER_SECRET must be set")
	}

	// Create dependency injection container
	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Start the background worker
	jobs, err := worker.New(c.Catalog, c.Services.Board, c.RedisClient, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create worker")
	}
	if err := jobs.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start worker")
	}

	// Setup router
	router := setupRouter(c)

	// Create HTTP server
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Create resources manager for cleanup
	resources := &Resources{
		db:          c.DB,
		redisClient: c.RedisClient,
		worker:      jobs,
		server:      server,
		log:         log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	services := c.Services

	r := chi.NewRouter()

	// Setup CORS middleware
	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	// Setup middlewares
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Create handlers
	healthHandler := handler.NewHealthHandler(c)
	walletHandler := handler.NewWalletHandler(services.Wallet, log)
	activityHandler := handler.NewActivityHandler(services.Activity, services.Participation, log)
	voucherHandler := handler.NewVoucherHandler(services.Voucher, log)
	rewardHandler := handler.NewRewardHandler(services.Reward, log)
	boardHandler := handler.NewBoardHandler(services.Board, log)

	// Health checks (no auth required)
	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no authentication required)
		r.Post("/wallet/connect", walletHandler.Connect)
		r.Get("/activities", activityHandler.List)
		r.Get("/activities/upcoming", activityHandler.Upcoming)
		r.With(middleware.OptionalAuth(services.Wallet, log)).Get("/activities/{activityId}", activityHandler.Get)
		r.Get("/rewards", rewardHandler.List)
		r.Get("/leaderboard", boardHandler.Leaderboard)
		r.Get("/stats", boardHandler.Stats)

		// Protected routes (require a wallet session)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Wallet, log))

			r.Post("/wallet/disconnect", walletHandler.Disconnect)
			r.Get("/wallet/profile", walletHandler.Profile)

			r.Post("/activities/{activityId}/enroll", activityHandler.Enroll)
			r.Post("/activities/{activityId}/complete", activityHandler.Complete)
			r.Post("/activities/{activityId}/unenroll", activityHandler.Unenroll)

			r.Post("/vouchers/redeem", voucherHandler.Redeem)
			r.Post("/vouchers/mint", voucherHandler.Mint)

			r.Post("/rewards/{rewardId}/redeem", rewardHandler.Redeem)
		})
	})

	return r
}
