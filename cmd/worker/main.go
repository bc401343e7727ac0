package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/config"
	"ancillary-api/internal/database"
	"ancillary-api/internal/idgen"
	"ancillary-api/internal/repository"
	"ancillary-api/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Backend).Msg("starting offer sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()

	store, err := database.OpenStore(ctx, cfg, clk, repository.Collections, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer store.Close()

	offerRepo := repository.NewOfferRepository(store, nil, clk, idgen.New(), logger)
	offerService := service.NewOfferService(offerRepo, clk, logger)

	service.NewSweeper(offerService, cfg.Offers.SweepInterval(), logger).Run(ctx)

	logger.Info().Msg("offer sweeper shutdown completed")
	return nil
}
