package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/application/middleware"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/metrics"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/config"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/external/billing"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/external/crashes"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/external/docstore"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/logging"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/persistence/pool"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/persistence/repository"
	app_handler "github.com/jeremyplt/shinobi-dashboard-sub000/internal/interfaces/http/handlers"
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

	logging.Logger.Info("Starting dashboard API server",
		zap.Int("port", cfg.Server.Port),
		zap.String("environment", cfg.Sentry.Environment),
	)

	ctx := context.Background()

	// Snapshot history store
	dbPool, err := pool.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close(dbPool)

	if err := pool.Ping(ctx, dbPool); err != nil {
		logging.Logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Redis backs the rate limiter
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

	// Vendor adapters
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
	crashClient := crashes.NewClient(crashes.Config{
		BaseURL: cfg.Crashes.BaseURL,
		APIKey:  cfg.Crashes.APIKey,
		Timeout: cfg.Crashes.Timeout,
	}, logging.WithComponent("crashes"))
	snapshotRepo := repository.NewSnapshotRepository(dbPool)

	// Metrics core
	metricsCache := cache.New()
	metricsService := metrics.NewService(eventRepo, billingClient, metricsCache, logging.WithComponent("metrics"))

	// Middleware
	session := middleware.NewSessionMiddleware(
		cfg.Dashboard.Password,
		cfg.Dashboard.SessionSecret,
		cfg.Dashboard.SessionTTL,
	)
	rateLimiter := middleware.NewRateLimiter(redisClient, logging.WithComponent("ratelimit"), true) // fail open

	// Handlers
	authHandler := app_handler.NewAuthHandler(session, logging.WithComponent("auth"))
	metricsHandler := app_handler.NewMetricsHandler(metricsService, metricsCache, logging.WithComponent("metrics"))
	exportHandler := app_handler.NewExportHandler(snapshotRepo, logging.WithComponent("export"))
	stabilityHandler := app_handler.NewStabilityHandler(crashClient, metricsCache, logging.WithComponent("crashes"))

	if cfg.Sentry.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logging.RequestMiddleware(logging.Logger),
		rateLimiter.Middleware(middleware.RateLimitConfig{Rate: 10, Burst: 20}),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
	}

	api := router.Group("/api/v1", session.Authenticate())
	{
		api.GET("/metrics/overview", metricsHandler.GetOverview)
		api.GET("/metrics/mrr", metricsHandler.GetMRR)
		api.GET("/metrics/churn", metricsHandler.GetChurn)
		api.GET("/metrics/conversion", metricsHandler.GetConversion)
		api.GET("/metrics/revenue-by-currency", metricsHandler.GetRevenueByCurrency)
		api.GET("/metrics/arpu", metricsHandler.GetARPU)
		api.GET("/metrics/ltv", metricsHandler.GetLTV)
		api.GET("/metrics/summary", metricsHandler.GetSummary)
		api.GET("/metrics/crashes", stabilityHandler.GetCrashOverview)
		api.POST("/metrics/refresh", metricsHandler.Refresh)
		api.GET("/export/snapshots.csv", exportHandler.ExportSnapshots)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logging.Logger.Info("Dashboard API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("Forced shutdown", zap.Error(err))
	}

	logging.Logger.Info("Server exited")
}
