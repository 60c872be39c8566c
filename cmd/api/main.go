package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/cache"
	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/overlay"
	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/providers/traveltime"
	"github.com/zatekoja/hospitalrouter/backend/internal/adapters/registry"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/handlers"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/middleware"
	"github.com/zatekoja/hospitalrouter/backend/internal/api/routes"
	"github.com/zatekoja/hospitalrouter/backend/internal/application/services"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/providers"
	"github.com/zatekoja/hospitalrouter/backend/internal/domain/repositories"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospitalrouter/backend/internal/infrastructure/observability"
	"github.com/zatekoja/hospitalrouter/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	var redisClient *redis.Client
	if cfg.RedisRequired() {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			if cfg.Overlay.Backend == config.OverlayBackendRedis {
				logger.Fatal().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("Redis overlay backend unavailable")
			}
			// The response cache is optional.
			logger.Warn().Err(err).Msg("Redis unavailable, continuing without response cache")
		} else {
			defer redisClient.Close()
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	var store repositories.CapacityOverlayStore
	switch cfg.Overlay.Backend {
	case config.OverlayBackendRedis:
		store = overlay.NewRedisStore(redisClient, cfg.Overlay.KeyPrefix)
	default:
		store = overlay.NewMemoryStore()
	}
	logger.Info().Str("backend", cfg.Overlay.Backend).Msg("Capacity overlay store ready")

	var travel providers.TravelTimeProvider
	if cfg.TravelTime.LiveTravelTimeEnabled() {
		travel = traveltime.NewGoogleDistanceMatrixProvider(cfg.TravelTime.APIKey, cfg.TravelTime.Timeout)
		logger.Info().Dur("timeout", cfg.TravelTime.Timeout).Msg("Live travel times enabled")
	} else {
		logger.Info().Msg("Live travel times disabled, using simulated travel times")
	}

	hospitalRegistry := registry.NewCSVRegistry(cfg.Registry.Source)
	if _, err := hospitalRegistry.Load(ctx); err != nil {
		// Not fatal: the next request retries the load.
		logger.Warn().Err(err).Str("source", cfg.Registry.Source).Msg("Initial hospital registry load failed")
	}

	selectionService := services.NewSelectionService(hospitalRegistry, store, travel)
	selectionService.SetMetrics(metrics)
	dispatchService := services.NewDispatchService(store)
	dispatchService.SetMetrics(metrics)

	var cacheMiddleware *middleware.CacheMiddleware
	if redisClient != nil && cfg.Redis.Enabled {
		cacheMiddleware = middleware.NewCacheMiddleware(cache.NewRedisAdapter(redisClient, cfg.Overlay.KeyPrefix), nil, metrics)
	}

	router := routes.NewRouter(
		handlers.NewHospitalHandler(selectionService),
		handlers.NewRoutingHandler(selectionService, dispatchService),
		cacheMiddleware,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.TravelTime.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Server stopped")
}
