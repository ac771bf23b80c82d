package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/glaucoma-risk-server/internal/api"
	"github.com/glaucoma-risk-server/internal/cache"
	"github.com/glaucoma-risk-server/internal/config"
	"github.com/glaucoma-risk-server/internal/database"
	"github.com/glaucoma-risk-server/internal/domain"
	"github.com/glaucoma-risk-server/internal/repository"
	"github.com/glaucoma-risk-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create migration runner")
		}
		if err := runner.Up(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to apply migrations")
		}
		runner.Close()
	}

	// Optional two-tier weight cache
	var weights *cache.WeightCache
	if cfg.Cache.Enabled {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid redis URL")
		}
		opts.MaxRetries = cfg.Cache.MaxRetries
		opts.PoolSize = cfg.Cache.PoolSize
		opts.PoolTimeout = cfg.Cache.PoolTimeout
		client := redis.NewClient(opts)
		defer client.Close()

		weights, err = cache.NewWeightCache(client, cfg.Cache.MemorySize, cfg.Cache.DefaultTTL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create weight cache")
		}
	}

	// Repositories and services
	scoreRepo := repository.NewScoreConfigRepository(db.Pool, logger)
	adviceRepo := repository.NewAdviceRepository(db.Pool, logger, cfg.Database.UseStoredProcedures)

	policy := service.RetryPolicy{
		MaxAttempts: cfg.Resilience.MaxAttempts,
		BackoffBase: cfg.Resilience.BackoffBase,
	}
	settings := service.DefaultBreakerSettings(logger)
	settings.MaxRequests = cfg.Resilience.BreakerMaxRequests
	settings.Interval = cfg.Resilience.BreakerInterval
	settings.Timeout = cfg.Resilience.BreakerTimeout

	adviceStore := service.NewRecommendationStore(adviceRepo, policy, settings, logger)
	resolver := service.NewMatchResolver(logger)
	calculator := service.NewScoreCalculator(
		[]domain.WeightSource{
			service.NewConfiguredWeightSource(scoreRepo, weights, logger),
			service.NewLegacyWeightSource(),
		},
		adviceStore, resolver, logger,
	)

	server := api.NewServer(&cfg.Server, calculator, adviceStore, db, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Glaucoma risk server stopped")
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	}

	return logger
}
