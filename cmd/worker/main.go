package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spatial-summarize/internal/config"
	"github.com/spatial-summarize/internal/pkg/logger"
	"github.com/spatial-summarize/internal/repository/cache"
	"github.com/spatial-summarize/internal/repository/postgres"
	redisRepo "github.com/spatial-summarize/internal/repository/redis"
	"github.com/spatial-summarize/internal/usecase"
	"github.com/spatial-summarize/internal/worker"
	"github.com/spatial-summarize/internal/worker/summary"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
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

	log.Info("Starting Summary Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Int("max_features", cfg.Summary.MaxFeatures))

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
	layerRepo := postgres.NewLayerRepository(db)
	jobRepo := postgres.NewJobRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	// 6. Initialize use cases
	layerUC := usecase.NewLayerUseCase(layerRepo, cacheRepo, cfg.Cache.LayerCacheTTL, cfg.Summary.MaxFeatures, log)
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
	jobUC := usecase.NewJobUseCase(jobRepo, streamRepo, layerUC, summarizeUC, log)

	// 7. Initialize workers
	summaryWorker := summary.NewSummaryWorker(
		streamRepo,
		jobUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(summaryWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Received shutdown signal")
	case <-workerManager.Done():
		log.Error("All workers exited", zap.Error(workerManager.Err()))
	}

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
