package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phishguard-api/internal/api"
	"phishguard-api/internal/api/handlers"
	"phishguard-api/internal/config"
	"phishguard-api/internal/domain/services"
	"phishguard-api/internal/infrastructure/cache"
	"phishguard-api/internal/reputation"
	"phishguard-api/pkg/logger"
)

func main() {
	// Load configuration; this fails before serving anything when the
	// reputation API key is missing
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting PhishGuard API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; without it the service runs with no verdict cache
	// and no rate limiting
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}
	defer func() {
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize services
	vtClient := reputation.NewVirusTotalClient(cfg.VirusTotal, log)
	orchestrator := services.NewOrchestrator(cfg.VirusTotal, vtClient, redisCache, log)
	scorer := services.NewContentScorer()
	log.Info().
		Dur("poll_interval", cfg.VirusTotal.PollInterval).
		Int("max_poll_attempts", cfg.VirusTotal.MaxPollAttempts).
		Msg("scan orchestrator initialized")

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Scanner: orchestrator,
		Scorer:  scorer,
		Cache:   redisCache,
		Logger:  log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
