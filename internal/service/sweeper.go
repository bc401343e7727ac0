package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically marks lapsed Active offers as Expired.
type Sweeper struct {
	offers   OfferService
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(offers OfferService, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		offers:   offers,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("offer sweeper started")
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.logger.Info().Msg("offer sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.offers.CleanupExpiredOffers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to expire offers")
		return
	}
	if expired > 0 {
		s.logger.Info().Int("expired", expired).Msg("expired lapsed offers")
	}
}
