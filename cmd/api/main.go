// Package main is the entry point for the feed API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/api"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/cache"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/config"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/db"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/feed"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/graph"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/health"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/interaction"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/middleware"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/ranking"
	"github.com/MundoTango/Mundo-Tango-sub013/internal/tracing"
)

const serviceName = "mundotango-feed-api"

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("Mundo Tango Feed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	// Initialize logger
	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	// Initialize tracing
	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.TracingInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	conn, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Metrics registry with process and Go runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}

	feedMetrics := feed.NewMetrics()
	if err := feedMetrics.Register(registry); err != nil {
		logger.Error("failed to register feed metrics", "error", err)
		os.Exit(1)
	}

	// Ranking weights with optional deploy-time calibration
	weights := ranking.DefaultWeights()
	if cfg.RankingCalibrationPath != "" {
		loaded, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
		if err != nil {
			logger.Warn("failed to load ranking calibration, using defaults",
				"path", cfg.RankingCalibrationPath, "error", err)
		} else {
			weights = loaded
		}
	}

	// Repositories
	posts := post.NewPostgresPostRepository(conn, logger)
	graphRepo := graph.NewPostgresGraphRepository(conn, logger)
	interactions := interaction.NewPostgresInteractionRepository(conn, logger)

	feedService := feed.NewService(posts, graphRepo, interactions, weights, feedMetrics, logger)

	// Health checks
	checkers := map[string]api.Checker{
		"database": health.NewDBChecker(conn),
	}

	// Redis-backed trending cache is optional; the feed service computes
	// trending directly when no cache is configured.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()

		ttl := time.Duration(cfg.TrendingCacheTTLSeconds) * time.Second
		feedService = feedService.WithTrendingCache(cache.NewTrendingCache(redisClient, ttl))
		checkers["redis"] = health.NewRedisChecker(redisClient)
		logger.Info("trending cache enabled", "ttl", ttl)
	}

	feedHandlers := api.NewFeedHandlers(feedService, logger)
	healthHandlers := api.NewHealthHandlers(checkers)

	// Create HTTP server with routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /feed", feedHandlers.GetFeed)
	mux.HandleFunc("GET /feed/trending", feedHandlers.GetTrending)
	mux.HandleFunc("GET /feed/recommended", feedHandlers.GetRecommended)
	mux.HandleFunc("GET /users/active", feedHandlers.GetActiveUsers)
	mux.HandleFunc("GET /health", healthHandlers.Liveness)
	mux.HandleFunc("GET /ready", healthHandlers.Readiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path, everything else returns 404
		if r.URL.Path != "/" {
			api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"` + serviceName + `","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Tracing -> HTTPMetrics -> Logging
	var handler http.Handler = mux
	handler = middleware.Logging(logger)(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	if tracingProvider.IsEnabled() {
		handler = middleware.Tracing(serviceName)(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracingProvider.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracing", "error", err)
	}

	logger.Info("server stopped")
}
