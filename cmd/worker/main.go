package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/metrics"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/config"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/external/billing"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/external/docstore"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/logging"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/persistence/pool"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/persistence/repository"
	worker_tasks "github.com/jeremyplt/shinobi-dashboard-sub000/internal/worker/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(&cfg.Sentry); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync()

	logging.Logger.Info("Starting snapshot worker")

	ctx := context.Background()
	dbPool, err := pool.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close(dbPool)

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logging.Logger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	opts.PoolSize = cfg.Redis.PoolSize
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logging.Logger.Fatal("Failed to ping Redis", zap.Error(err))
	}

	docClient, err := docstore.NewClient(docstore.Config{
		BaseURL:         cfg.Docstore.BaseURL,
		ProjectID:       cfg.Docstore.ProjectID,
		CredentialsJSON: []byte(cfg.Docstore.CredentialsJSON),
		Timeout:         cfg.Docstore.Timeout,
	}, logging.WithComponent("docstore"))
	if err != nil {
		logging.Logger.Fatal("Failed to create docstore client", zap.Error(err))
	}
	eventRepo := docstore.NewEventRepository(docClient, cfg.Docstore.EventCollection, logging.WithComponent("docstore"))
	billingClient := billing.NewClient(billing.Config{
		BaseURL: cfg.Billing.BaseURL,
		APIKey:  cfg.Billing.APIKey,
		Timeout: cfg.Billing.Timeout,
	}, logging.WithComponent("billing"))
	snapshotRepo := repository.NewSnapshotRepository(dbPool)

	metricsService := metrics.NewService(eventRepo, billingClient, cache.New(), logging.WithComponent("metrics"))
	snapshotHandler := worker_tasks.NewSnapshotJobHandler(metricsService, eventRepo, snapshotRepo, logging.WithComponent("snapshot"))

	server := asynq.NewServerFromRedisClient(redisClient, asynq.Config{
		Concurrency: 2,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			// Exponential backoff: 2^n seconds
			return time.Duration(1<<uint(n)) * time.Second
		},
	})

	mux := asynq.NewServeMux()
	worker_tasks.RegisterHandlers(mux, snapshotHandler)

	if err := server.Start(mux); err != nil {
		logging.Logger.Fatal("Failed to start worker", zap.Error(err))
	}

	scheduler := asynq.NewSchedulerFromRedisClient(redisClient, nil)
	worker_tasks.RegisterScheduledTasks(scheduler, logging.Logger)

	if err := scheduler.Start(); err != nil {
		logging.Logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	logging.Logger.Info("Worker started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down worker...")

	scheduler.Shutdown()
	server.Shutdown()

	logging.Logger.Info("Worker exited")
}
