package main

// @title SafeRoute Service API
// @version 1.0.0
// @description Crime-aware routing service. Calculates driving routes, overlays per-region crime risk onto them, ingests collaborative and official crime reports, and coordinates active navigation sessions with deviation- and traffic-triggered recalculation.

// @contact.name API Support
// @contact.email support@saferoute-service.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/saferoute-service/docs/swagger"
	"github.com/saferoute-service/internal/config"
	httpDelivery "github.com/saferoute-service/internal/delivery/http"
	"github.com/saferoute-service/internal/delivery/http/handler"
	"github.com/saferoute-service/internal/infrastructure/maps"
	"github.com/saferoute-service/internal/pkg/logger"
	"github.com/saferoute-service/internal/pkg/metrics"
	"github.com/saferoute-service/internal/repository/cache"
	"github.com/saferoute-service/internal/repository/postgres"
	redisRepo "github.com/saferoute-service/internal/repository/redis"
	"github.com/saferoute-service/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting SafeRoute Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("primary_provider", cfg.Maps.Provider),
		zap.String("fallback_provider", cfg.Maps.FallbackProvider),
	)

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

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	log.Info("All connections healthy")

	// 6. Initialize repositories
	regionRepo := postgres.NewRegionRepository(db)
	occurrenceRepo := postgres.NewOccurrenceRepository(db)
	riskRepo := postgres.NewRiskRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	rateLimitRepo := cache.NewRateLimitRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	flagger := redisRepo.NewAnomalyFlagger(streamRepo, log)
	log.Info("Repositories initialized")

	// 7. Provider gateway
	gateway, err := maps.NewGatewayFromConfig(&cfg.Maps, log)
	if err != nil {
		log.Fatal("Failed to initialize provider gateway", zap.Error(err))
	}

	// 8. Initialize use cases
	riskUC := usecase.NewRiskIndexUseCase(occurrenceRepo, regionRepo, riskRepo, cfg.Risk, log)
	occurrenceUC := usecase.NewOccurrenceUseCase(
		occurrenceRepo, regionRepo, rateLimitRepo, streamRepo,
		flagger, auditRepo, cacheRepo, cfg.Ingest, log,
	)
	routeUC := usecase.NewRouteRiskUseCase(gateway, regionRepo, riskRepo, log)
	trafficUC := usecase.NewTrafficUseCase(gateway, cacheRepo, cfg.Traffic, log)
	navigationUC := usecase.NewNavigationUseCase(routeUC, trafficUC, cfg.Navigation, log)
	geocodeUC := usecase.NewGeocodeUseCase(gateway, cacheRepo, log)
	log.Info("Use cases initialized")

	// 9. Initialize HTTP handlers
	routeHandler := handler.NewRouteHandler(routeUC, log)
	geocodeHandler := handler.NewGeocodeHandler(geocodeUC, log)
	occurrenceHandler := handler.NewOccurrenceHandler(occurrenceUC, log)
	riskHandler := handler.NewRiskHandler(riskUC, log)
	navigationHandler := handler.NewNavigationHandler(navigationUC, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, gateway)

	// 10. Initialize HTTP server
	server := httpDelivery.NewServer(
		cfg,
		log,
		routeHandler,
		geocodeHandler,
		occurrenceHandler,
		riskHandler,
		navigationHandler,
		healthHandler,
	)

	// 11. Metrics on a side listener
	if cfg.Metrics.Enabled {
		metrics.Register()
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Info("Starting metrics listener", zap.String("address", addr))
			mux := nethttp.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := nethttp.ListenAndServe(addr, mux); err != nil {
				log.Error("Metrics listener failed", zap.Error(err))
			}
		}()
	}

	// 12. Start server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 13. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
