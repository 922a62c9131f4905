package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/opsboard/realtime-backend/internal/adapters/primary/http"
	mw "github.com/opsboard/realtime-backend/internal/adapters/primary/http/middleware"
	"github.com/opsboard/realtime-backend/internal/adapters/secondary/postgres"
	"github.com/opsboard/realtime-backend/internal/adapters/secondary/webhook"
	"github.com/opsboard/realtime-backend/internal/auth"
	"github.com/opsboard/realtime-backend/internal/config"
	"github.com/opsboard/realtime-backend/internal/core/realtime"
	"github.com/opsboard/realtime-backend/internal/core/services"
	"github.com/opsboard/realtime-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	registry := realtime.NewRegistry(cfg.Realtime.QueueCapacity, logger)

	// 5. Initialize Rate Limiters
	var generalRateLimiter *mw.RateLimiter
	var publishRateLimiter *mw.RateLimitByKey
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		publishRateLimiter = mw.NewRateLimitByKey(cfg.RateLimit.PublishRPS, cfg.RateLimit.PublishBurst)
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories & Directories (Secondary Adapters)
	webhookRepo := postgres.NewWebhookRepository(pool)
	tenantDirectory := postgres.NewTenantDirectory(pool)

	// Webhook Sender (Secondary Adapter)
	sender := webhook.NewSender(&http.Client{Timeout: cfg.Webhook.DefaultTimeout}, logger)

	// Services (Core)
	dispatcher := realtime.NewDispatcher(registry, tenantDirectory, logger)
	eventService := services.NewEventService(dispatcher, webhookRepo, sender, logger)
	webhookService := services.NewWebhookService(webhookRepo)

	// Handlers (Primary Adapters)
	eventHandler := httpAdapter.NewEventHandler(eventService, errorHandler, logger)
	webhookHandler := httpAdapter.NewWebhookHandler(webhookService, errorHandler, logger)
	realtimeHandler := httpAdapter.NewRealtimeHandler(registry, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(registry, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, registry, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.APIKeyHeader, mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))

			// Event publishing gets its own per-user rate limit
			r.Group(func(r chi.Router) {
				if publishRateLimiter != nil {
					r.Use(publishRateLimiter.Middleware)
				}
				r.Route("/events", eventHandler.RegisterRoutes)
			})

			r.Route("/webhooks", webhookHandler.RegisterRoutes)
		})

		// Admin routes guarded by API key
		r.Group(func(r chi.Router) {
			r.Use(mw.AdminAPIKey(cfg.Admin.APIKeyHash))
			r.Route("/realtime", realtimeHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	// Close live connections and wait for in-flight webhook deliveries
	registry.CloseAll()
	eventService.Shutdown()

	logger.Info("server shutdown complete")
}
