package repository

import (
	"context"
	"fmt"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/docstore"
	"ancillary-api/internal/idgen"
	"ancillary-api/internal/model"

	"github.com/rs/zerolog"
)

// offerRepository implements the OfferRepository interface over a document store.
type offerRepository struct {
	offers *docstore.Collection[model.Offer, *model.Offer]
	clock  clock.Clock
	ids    idgen.Generator
	logger zerolog.Logger
}

// NewOfferRepository creates a new offer repository. index may be nil.
func NewOfferRepository(store docstore.Store, index docstore.PartitionIndex, clk clock.Clock, ids idgen.Generator, logger zerolog.Logger) OfferRepository {
	logger = logger.With().Str("repository", "offer").Logger()
	return &offerRepository{
		offers: docstore.NewCollection[model.Offer, *model.Offer](store, OffersCollection, index, logger),
		clock:  clk,
		ids:    ids,
		logger: logger,
	}
}

// CreateOffer stamps the lifetime and inserts the offer as Active.
func (r *offerRepository) CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	if offer.ID == "" {
		offer.ID = r.ids.NewID()
	}
	offer.StampTTL(r.clock.Now())
	offer.Status = model.OfferStatusActive

	created, err := r.offers.Create(ctx, offer)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("offer_id", offer.ID).
			Str("flight_id", offer.FlightID).
			Msg("failed to create offer")
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	r.logger.Debug().
		Str("offer_id", created.ID).
		Str("flight_id", created.FlightID).
		Time("valid_until", created.ValidUntil).
		Msg("offer created successfully")

	return created, nil
}

// GetOffer retrieves an offer by id.
func (r *offerRepository) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	offer, err := r.offers.FindByID(ctx, id)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", id).Msg("failed to get offer")
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if offer == nil {
		r.logger.Debug().Str("offer_id", id).Msg("offer not found")
	}
	return offer, nil
}

// GetOfferInPartition reads an offer from a known flight partition.
func (r *offerRepository) GetOfferInPartition(ctx context.Context, id, flightID string) (*model.Offer, error) {
	offer, err := r.offers.Get(ctx, id, flightID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("offer_id", id).
			Str("flight_id", flightID).
			Msg("failed to get offer")
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// GetOffersByFlight returns the live Active offers of one flight.
func (r *offerRepository) GetOffersByFlight(ctx context.Context, flightID string) ([]model.Offer, error) {
	offers, err := r.activeOffers(ctx, flightID)
	if err != nil {
		r.logger.Error().Err(err).Str("flight_id", flightID).Msg("failed to get offers by flight")
		return nil, fmt.Errorf("failed to get offers by flight: %w", err)
	}
	return offers, nil
}

// GetActiveOffers returns every live Active offer.
func (r *offerRepository) GetActiveOffers(ctx context.Context) ([]model.Offer, error) {
	offers, err := r.activeOffers(ctx, "")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to get active offers")
		return nil, fmt.Errorf("failed to get active offers: %w", err)
	}
	return offers, nil
}

// activeOffers filters out offers past validUntil whose status was never
// rewritten by a sweep.
func (r *offerRepository) activeOffers(ctx context.Context, flightID string) ([]model.Offer, error) {
	offers, err := r.offers.Query(ctx, docstore.Query{
		PartitionKey: flightID,
		Predicates:   []docstore.Predicate{docstore.Eq("status", string(model.OfferStatusActive))},
		Sort:         newestFirst(),
	})
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	live := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if !o.IsExpired(now) {
			live = append(live, o)
		}
	}
	return live, nil
}

// UpdateOffer writes the offer unconditionally.
func (r *offerRepository) UpdateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	updated, err := r.offers.Upsert(ctx, offer)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", offer.ID).Msg("failed to update offer")
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	r.logger.Debug().
		Str("offer_id", updated.ID).
		Str("status", string(updated.Status)).
		Msg("offer updated successfully")

	return updated, nil
}

// ReplaceOffer writes the offer if its stored version is unchanged.
func (r *offerRepository) ReplaceOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	updated, err := r.offers.Replace(ctx, offer)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("offer_id", offer.ID).
			Int64("version", offer.Version()).
			Msg("failed to replace offer")
		return nil, fmt.Errorf("failed to replace offer: %w", err)
	}
	return updated, nil
}

// DeleteOffer removes an offer by id.
func (r *offerRepository) DeleteOffer(ctx context.Context, id string) error {
	offer, err := r.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if offer == nil {
		return nil
	}

	if err := r.offers.Delete(ctx, offer.ID, offer.FlightID); err != nil {
		r.logger.Error().Err(err).Str("offer_id", id).Msg("failed to delete offer")
		return fmt.Errorf("failed to delete offer: %w", err)
	}

	r.logger.Debug().Str("offer_id", id).Msg("offer deleted successfully")
	return nil
}

// OfferExists reports whether an offer is stored.
func (r *offerRepository) OfferExists(ctx context.Context, id string) (bool, error) {
	offer, err := r.GetOffer(ctx, id)
	if err != nil {
		return false, err
	}
	return offer != nil, nil
}

// ExpireOffer writes status Expired on an offer.
func (r *offerRepository) ExpireOffer(ctx context.Context, id string) (bool, error) {
	offer, err := r.GetOffer(ctx, id)
	if err != nil {
		return false, err
	}
	if offer == nil {
		return false, nil
	}

	offer.Status = model.OfferStatusExpired
	if _, err := r.UpdateOffer(ctx, offer); err != nil {
		return false, err
	}
	return true, nil
}

// CleanupExpiredOffers expires Active offers past their validUntil. A failure
// on one offer is logged and the sweep continues.
func (r *offerRepository) CleanupExpiredOffers(ctx context.Context) (int, error) {
	now := r.clock.Now()
	stale, err := r.offers.Query(ctx, docstore.Query{
		Predicates: []docstore.Predicate{
			docstore.Eq("status", string(model.OfferStatusActive)),
			docstore.Lt("validUntil", now),
		},
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query expired offers")
		return 0, fmt.Errorf("failed to query expired offers: %w", err)
	}

	expired := 0
	for i := range stale {
		offer := &stale[i]
		offer.Status = model.OfferStatusExpired
		if _, err := r.offers.Upsert(ctx, offer); err != nil {
			r.logger.Warn().
				Err(err).
				Str("offer_id", offer.ID).
				Str("flight_id", offer.FlightID).
				Msg("failed to expire offer")
			continue
		}
		expired++
	}

	r.logger.Info().
		Int("found", len(stale)).
		Int("expired", expired).
		Msg("expired offers cleaned up")

	return expired, nil
}

// SearchOffers filters offers by criteria. Stored status is returned as is.
func (r *offerRepository) SearchOffers(ctx context.Context, criteria model.OfferSearchCriteria) ([]model.Offer, error) {
	q, err := offerSearchQuery(criteria)
	if err != nil {
		return nil, err
	}

	offers, err := r.offers.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to search offers")
		return nil, fmt.Errorf("failed to search offers: %w", err)
	}
	return offers, nil
}
