package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iradwatkins/stepper-ui-forge-sub003/api/routes"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/events"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/inventory"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/config"
	"github.com/iradwatkins/stepper-ui-forge-sub003/internal/shared/database"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load environment variables
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		// Check if we're in production/container mode
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Pick the seat store backend. Memory is authoritative for a single
	// instance; Redis shares seat state across instances via Lua scripts.
	var store inventory.Store
	if cfg.Inventory.Backend == "redis" {
		redisStore := inventory.NewRedisSeatStore(db.GetRedisClient())

		// Preload Redis Lua scripts for atomic operations (critical for concurrency)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := redisStore.PreloadScripts(ctx); err != nil {
			appLogger.Error("Failed to preload Redis Lua scripts", slog.Any("error", err))
			// Continue without failing - scripts will be loaded on first use
		} else {
			appLogger.Info("✅ Redis Lua scripts preloaded for atomic seat operations")
		}
		cancel()

		store = redisStore
	} else {
		store = inventory.NewMemoryStore()
	}
	appLogger.Info("Seat store initialized", slog.String("backend", cfg.Inventory.Backend))

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiterConfig := &ratelimit.Config{
			Enabled:          cfg.RateLimit.Enabled,
			WindowDuration:   cfg.RateLimit.WindowDuration,
			DefaultRequests:  cfg.RateLimit.DefaultRequests,
			PublicRequests:   cfg.RateLimit.PublicRequests,
			SessionRequests:  cfg.RateLimit.SessionRequests,
			HoldRequests:     cfg.RateLimit.HoldRequests,
			CriticalRequests: cfg.RateLimit.CriticalRequests,
			HealthRequests:   cfg.RateLimit.HealthRequests,
		}

		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), rateLimiterConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Seat-event publisher. The noop publisher keeps call sites branch-free
	// when Kafka is off.
	var publisher events.Publisher = events.NewNoopPublisher()
	if cfg.Kafka.Enabled {
		publisherConfig := events.DefaultKafkaPublisherConfig()
		publisherConfig.Brokers = cfg.Kafka.Brokers
		publisherConfig.Topic = cfg.Kafka.Topic

		kafkaPublisher, err := events.NewKafkaPublisher(publisherConfig)
		if err != nil {
			appLogger.Error("Failed to create Kafka publisher", slog.Any("error", err))
			appLogger.Info("Continuing without seat events - hold transitions will not be announced")
		} else {
			publisher = kafkaPublisher
		}
	}
	defer publisher.Close()

	// Setup router with rate limiter
	appRouter := routes.NewRouter(cfg, db, store)
	appRouter.SetEventPublisher(publisher)
	router := setupRouter(appRouter, rateLimiter)

	// Hydrate the seat store from the chart catalog, then rebuild the
	// active hold registry from the audit trail. Order matters: holds
	// re-acquire seats that hydration marked available.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if loaded, err := appRouter.InventoryService().LoadAllCharts(bootCtx); err != nil {
		appLogger.Error("Failed to hydrate seat store", slog.Any("error", err))
	} else {
		appLogger.Info("Seat store hydrated", slog.Int("seats", loaded))
	}
	if rehydrated, err := appRouter.HoldService().RehydrateActiveHolds(bootCtx); err != nil {
		appLogger.Error("Failed to rehydrate active holds", slog.Any("error", err))
	} else if rehydrated > 0 {
		appLogger.Info("Active holds rehydrated", slog.Int("holds", rehydrated))
	}
	bootCancel()

	// Background jobs: hold expiration sweep, session reconciliation
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	appRouter.JobProcessor().Start(jobCtx)
	defer appRouter.JobProcessor().Stop()

	appRouter.Reconciler().Start(jobCtx)
	defer appRouter.Reconciler().Stop()

	// Seat-event consumer invalidates chart caches on other instances
	if cfg.Kafka.Enabled {
		consumerConfig := events.DefaultKafkaConsumerConfig()
		consumerConfig.Brokers = cfg.Kafka.Brokers
		consumerConfig.GroupID = cfg.Kafka.ConsumerGroup
		consumerConfig.Topics = []string{cfg.Kafka.Topic}

		consumer, err := events.NewKafkaConsumer(consumerConfig, appRouter.InventoryService())
		if err != nil {
			appLogger.Error("Failed to create seat event consumer", slog.Any("error", err))
			appLogger.Info("Continuing without cache invalidation from the event bus")
		} else {
			if err := consumer.StartConsumers(jobCtx, 2); err != nil {
				appLogger.Error("Failed to start seat event consumers", slog.Any("error", err))
			}
			defer consumer.Stop()
		}
	}

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_status", fmt.Sprintf("http://localhost:%s%s/status", cfg.Port, cfg.GetAPIBasePath())),
			slog.String("version", cfg.APIVersion),
			slog.String("seat_store", cfg.Inventory.Backend),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("seat_events", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Admin-Key", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	// Initialize and setup routes
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
