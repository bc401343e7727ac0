package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ancillary-api/internal/cache"
	"ancillary-api/internal/clock"
	"ancillary-api/internal/config"
	"ancillary-api/internal/database"
	"ancillary-api/internal/docstore"
	"ancillary-api/internal/events"
	"ancillary-api/internal/handler"
	"ancillary-api/internal/idgen"
	"ancillary-api/internal/repository"
	"ancillary-api/internal/router"
	"ancillary-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Backend).Msg("starting ancillary API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.NewSystem()
	ids := idgen.New()

	// Initialize document store
	store, err := database.OpenStore(ctx, cfg, clk, repository.Collections, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer store.Close()

	// Partition index is optional; lookups by id fall back to a scan without it
	var index docstore.PartitionIndex
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to redis, continuing without partition index")
		} else {
			defer redisClient.Close()
			index = cache.NewPartitionIndex(redisClient, cfg.Redis.KeyTTL())
		}
	}

	// Order events go to Kafka when enabled
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	} else {
		logger.Info().Msg("order event publishing disabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Initialize repositories
	offerRepo := repository.NewOfferRepository(store, index, clk, ids, logger)
	orderRepo := repository.NewOrderRepository(store, index, clk, ids, logger)

	// Initialize services
	offerService := service.NewOfferService(offerRepo, clk, logger)
	orderService := service.NewOrderService(orderRepo, offerRepo, publisher, clk, ids, logger)

	// Initialize HTTP handlers
	offerHandler := handler.NewOfferHandler(offerService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	healthHandler := handler.NewHealthHandler(store, logger)

	// Initialize router
	mux := router.New(offerHandler, orderHandler, healthHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
