package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/pkg/logger"
	"github.com/saferoute-service/internal/pkg/metrics"
	"github.com/saferoute-service/internal/repository/cache"
	"github.com/saferoute-service/internal/repository/postgres"
	redisRepo "github.com/saferoute-service/internal/repository/redis"
	"github.com/saferoute-service/internal/usecase"
	"github.com/saferoute-service/internal/worker"
	"github.com/saferoute-service/internal/worker/jobs"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting SafeRoute Workers")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("sweep_interval", cfg.Worker.SweepInterval),
		zap.Duration("expiration_interval", cfg.Worker.ExpirationInterval))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	regionRepo := postgres.NewRegionRepository(db)
	occurrenceRepo := postgres.NewOccurrenceRepository(db)
	riskRepo := postgres.NewRiskRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	rateLimitRepo := cache.NewRateLimitRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	flagger := redisRepo.NewAnomalyFlagger(streamRepo, log)

	// 6. Initialize use cases
	riskUC := usecase.NewRiskIndexUseCase(occurrenceRepo, regionRepo, riskRepo, cfg.Risk, log)
	occurrenceUC := usecase.NewOccurrenceUseCase(
		occurrenceRepo, regionRepo, rateLimitRepo, streamRepo,
		flagger, auditRepo, cacheRepo, cfg.Ingest, log,
	)

	metrics.Register()

	// 7. Initialize workers
	recomputeWorker := jobs.NewRiskRecomputeWorker(
		streamRepo,
		regionRepo,
		riskUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		cfg.Worker.SweepInterval,
		log,
	)
	expirationWorker := jobs.NewExpirationWorker(occurrenceUC, cfg.Worker.ExpirationInterval, log)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(recomputeWorker)
	workerManager.Register(expirationWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Workers stopped")
}
