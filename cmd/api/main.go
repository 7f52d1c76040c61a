package main

// @title Spatial Summarize API
// @version 1.0.0
// @description Сервис площадного суммирования. Агрегирует числовые атрибуты исходного полигонального слоя в полигоны зон пропорционально площади пересечения.
// @description
// @description Основные возможности:
// @description - Суммирование sum, mean, min, max по GeoJSON или сохраненным слоям
// @description - Хранение полигональных слоев в PostGIS
// @description - Асинхронные задачи через Redis Streams

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/spatial-summarize/docs"
	"github.com/spatial-summarize/internal/config"
	httpDelivery "github.com/spatial-summarize/internal/delivery/http"
	"github.com/spatial-summarize/internal/delivery/http/handler"
	"github.com/spatial-summarize/internal/pkg/logger"
	"github.com/spatial-summarize/internal/repository/cache"
	"github.com/spatial-summarize/internal/repository/postgres"
	redisRepo "github.com/spatial-summarize/internal/repository/redis"
	"github.com/spatial-summarize/internal/usecase"
	"go.uber.org/zap"
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

	log.Info("Starting Spatial Summarize API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("equal_area_crs", cfg.Summary.EqualAreaCRS),
		zap.Int("precision", cfg.Summary.Precision),
		zap.String("default_join", cfg.Summary.DefaultJoin),
	)

	// 3. Connect to PostgreSQL (PostGIS)
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	log.Info("PostgreSQL connected")

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected")

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

	if cfg.Database.AutoMigrate {
		version, err := db.MigrateUp(cfg.Database.MigrationsPath)
		if err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Migrations applied", zap.Uint("version", version))
	}

	// 6. Initialize Repositories
	layerRepo := postgres.NewLayerRepository(db)
	jobRepo := postgres.NewJobRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	layerUC := usecase.NewLayerUseCase(
		layerRepo,
		cacheRepo,
		cfg.Cache.LayerCacheTTL,
		cfg.Summary.MaxFeatures,
		log,
	)

	summarizeUC, err := usecase.NewSummarizeUseCase(
		cfg.Summary.Engine(),
		layerUC,
		cacheRepo,
		cfg.Cache.SummaryCacheTTL,
		cfg.Summary.MaxFeatures,
		log,
	)
	if err != nil {
		log.Fatal("Invalid summary configuration", zap.Error(err))
	}

	jobUC := usecase.NewJobUseCase(
		jobRepo,
		streamRepo,
		layerUC,
		summarizeUC,
		log,
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP Handlers
	summarizeHandler := handler.NewSummarizeHandler(summarizeUC, log)
	layerHandler := handler.NewLayerHandler(layerUC, log)
	jobHandler := handler.NewJobHandler(jobUC, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthChecker{
		"postgres": db,
		"redis":    redisClient,
	}, log)

	log.Info("HTTP handlers initialized")

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		summarizeHandler,
		layerHandler,
		jobHandler,
		healthHandler,
	)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if err := db.Close(); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
