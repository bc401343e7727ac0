package service

import (
	"context"
	"errors"
	"strings"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/model"
	"ancillary-api/internal/repository"

	"github.com/rs/zerolog"
)

// offerService implements OfferService.
type offerService struct {
	offerRepo repository.OfferRepository
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewOfferService creates a new offer service.
func NewOfferService(offerRepo repository.OfferRepository, clk clock.Clock, logger zerolog.Logger) OfferService {
	return &offerService{
		offerRepo: offerRepo,
		clock:     clk,
		logger:    logger.With().Str("service", "offer").Logger(),
	}
}

// CreateOffer validates the request and stores a new Active offer.
func (s *offerService) CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error) {
	if err := s.validateOfferRequest(req); err != nil {
		return nil, err
	}

	offer := &model.Offer{
		FlightID:    req.FlightID,
		OfferType:   req.OfferType,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    normaliseCurrency(req.Currency),
		Metadata:    req.Metadata,
	}
	if offer.Metadata == nil {
		offer.Metadata = model.Metadata{}
	}

	created, err := s.offerRepo.CreateOffer(ctx, offer)
	if err != nil {
		return nil, model.NewStoreError("failed to create offer", err)
	}

	s.logger.Info().
		Str("offer_id", created.ID).
		Str("flight_id", created.FlightID).
		Str("offer_type", created.OfferType).
		Msg("offer created successfully")

	return created, nil
}

// GetOffer retrieves an offer, treating a time-expired offer as absent.
func (s *offerService) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	offer, err := s.offerRepo.GetOffer(ctx, id)
	if err != nil {
		return nil, model.NewStoreError("failed to get offer", err)
	}
	if offer == nil {
		return nil, model.NewNotFoundError(model.ErrCodeOfferNotFound, "Offer %s not found", id)
	}
	if offer.IsExpired(s.clock.Now()) {
		s.logger.Debug().
			Str("offer_id", id).
			Time("valid_until", offer.ValidUntil).
			Msg("offer expired")
		return nil, model.NewNotFoundError(model.ErrCodeOfferExpired, "Offer %s has expired", id)
	}
	return offer, nil
}

// GetOffersByFlight lists the live Active offers of a flight.
func (s *offerService) GetOffersByFlight(ctx context.Context, flightID string) ([]model.Offer, error) {
	offers, err := s.offerRepo.GetOffersByFlight(ctx, flightID)
	if err != nil {
		return nil, model.NewStoreError("failed to get offers by flight", err)
	}
	return offers, nil
}

// GetActiveOffers lists every live Active offer.
func (s *offerService) GetActiveOffers(ctx context.Context) ([]model.Offer, error) {
	offers, err := s.offerRepo.GetActiveOffers(ctx)
	if err != nil {
		return nil, model.NewStoreError("failed to get active offers", err)
	}
	return offers, nil
}

// CancelOffer forces the offer to Cancelled. The prior status is not checked.
func (s *offerService) CancelOffer(ctx context.Context, id string) error {
	offer, err := s.offerRepo.GetOffer(ctx, id)
	if err != nil {
		return model.NewStoreError("failed to get offer", err)
	}
	if offer == nil {
		return model.NewNotFoundError(model.ErrCodeOfferNotFound, "Offer %s not found", id)
	}

	previous := offer.Status
	offer.Status = model.OfferStatusCancelled
	if _, err := s.offerRepo.UpdateOffer(ctx, offer); err != nil {
		return model.NewStoreError("failed to cancel offer", err)
	}

	s.logger.Info().
		Str("offer_id", id).
		Str("previous_status", string(previous)).
		Msg("offer cancelled")

	return nil
}

// SearchOffers filters offers by criteria.
func (s *offerService) SearchOffers(ctx context.Context, criteria model.OfferSearchCriteria) ([]model.Offer, error) {
	if err := validateRange(criteria.MinPrice, criteria.MaxPrice, criteria.CreatedAfter, criteria.CreatedBefore); err != nil {
		return nil, err
	}

	offers, err := s.offerRepo.SearchOffers(ctx, criteria)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, model.NewStoreError("failed to search offers", err)
	}
	return offers, nil
}

// CleanupExpiredOffers writes Expired on Active offers past validUntil.
func (s *offerService) CleanupExpiredOffers(ctx context.Context) (int, error) {
	count, err := s.offerRepo.CleanupExpiredOffers(ctx)
	if err != nil {
		return 0, model.NewStoreError("failed to clean up expired offers", err)
	}
	if count > 0 {
		s.logger.Info().Int("expired", count).Msg("expired offers swept")
	}
	return count, nil
}

// validateOfferRequest validates the create offer request.
func (s *offerService) validateOfferRequest(req *model.CreateOfferRequest) error {
	if req == nil {
		return model.NewValidationError(model.ErrCodeInvalidJSON, "Offer request is required")
	}

	required := []struct {
		name  string
		value string
	}{
		{"flightId", req.FlightID},
		{"offerType", req.OfferType},
		{"title", req.Title},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return model.NewValidationError(model.ErrCodeMissingField, "%s is required", f.name)
		}
	}

	if !req.Price.IsPositive() {
		s.logger.Warn().
			Str("flight_id", req.FlightID).
			Str("price", req.Price.String()).
			Msg("invalid offer price")
		return model.ErrInvalidPrice
	}

	return validateCurrency(req.Currency)
}
