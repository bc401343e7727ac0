package service

import (
	"context"
	"errors"
	"strings"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/docstore"
	"ancillary-api/internal/events"
	"ancillary-api/internal/idgen"
	"ancillary-api/internal/model"
	"ancillary-api/internal/repository"

	"github.com/rs/zerolog"
)

// offerUsedAttempts bounds the read-modify-write retries when marking an offer Used.
const offerUsedAttempts = 2

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	offerRepo repository.OfferRepository
	publisher events.Publisher
	clock     clock.Clock
	ids       idgen.Generator
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	offerRepo repository.OfferRepository,
	publisher events.Publisher,
	clk clock.Clock,
	ids idgen.Generator,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		orderRepo: orderRepo,
		offerRepo: offerRepo,
		publisher: publisher,
		clock:     clk,
		ids:       ids,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder converts an available offer into a Pending order. The
// availability check is read-then-decide and does not lock the offer.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	offer, err := s.offerRepo.GetOffer(ctx, req.OfferID)
	if err != nil {
		return nil, model.NewStoreError("failed to get offer", err)
	}
	if offer == nil {
		return nil, model.NewNotFoundError(model.ErrCodeOfferNotFound, "Offer %s not found", req.OfferID)
	}

	now := s.clock.Now()
	if offer.IsExpired(now) {
		s.logger.Warn().
			Str("offer_id", offer.ID).
			Time("valid_until", offer.ValidUntil).
			Msg("order attempted against expired offer")
		return nil, model.NewInvalidStateError(model.ErrCodeOfferExpired, "Offer %s has expired", offer.ID)
	}
	if offer.Status != model.OfferStatusActive {
		s.logger.Warn().
			Str("offer_id", offer.ID).
			Str("status", string(offer.Status)).
			Msg("order attempted against unavailable offer")
		return nil, model.NewInvalidStateError(model.ErrCodeOfferUnavailable, "Offer %s is %s", offer.ID, offer.Status)
	}

	items := make([]model.OrderItem, len(req.OrderItems))
	for i, item := range req.OrderItems {
		items[i] = model.OrderItem{
			ID:        s.ids.NewID(),
			OfferID:   offer.ID,
			OfferType: offer.OfferType,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	order := &model.Order{
		CustomerID:   req.CustomerID,
		FlightID:     offer.FlightID,
		OfferID:      offer.ID,
		OrderItems:   items,
		TotalAmount:  model.SumItems(items),
		Currency:     offer.Currency,
		Status:       model.OrderStatusPending,
		CustomerInfo: req.CustomerInfo,
		PaymentInfo:  req.PaymentInfo,
	}
	if order.PaymentInfo.PaymentStatus == "" {
		order.PaymentInfo.PaymentStatus = model.PaymentStatusPending
	}

	created, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		return nil, model.NewStoreError("failed to create order", err)
	}

	s.logger.Info().
		Str("order_id", created.ID).
		Str("offer_id", created.OfferID).
		Str("customer_id", created.CustomerID).
		Str("total_amount", created.TotalAmount.String()).
		Int("item_count", len(created.OrderItems)).
		Msg("order created successfully")

	s.publish(ctx, events.OrderCreated, created)
	return created, nil
}

// GetOrder retrieves an order by id.
func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return nil, model.NewStoreError("failed to get order", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order %s not found", id)
	}
	return order, nil
}

// GetOrdersByCustomer lists a customer's orders.
func (s *orderService) GetOrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	orders, err := s.orderRepo.GetOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, model.NewStoreError("failed to get orders by customer", err)
	}
	return orders, nil
}

// GetOrdersByFlight lists the orders for a flight.
func (s *orderService) GetOrdersByFlight(ctx context.Context, flightID string) ([]model.Order, error) {
	orders, err := s.orderRepo.GetOrdersByFlight(ctx, flightID)
	if err != nil {
		return nil, model.NewStoreError("failed to get orders by flight", err)
	}
	return orders, nil
}

// GetOrdersByOffer lists the orders placed against an offer.
func (s *orderService) GetOrdersByOffer(ctx context.Context, offerID string) ([]model.Order, error) {
	orders, err := s.orderRepo.GetOrdersByOffer(ctx, offerID)
	if err != nil {
		return nil, model.NewStoreError("failed to get orders by offer", err)
	}
	return orders, nil
}

// ConfirmOrder confirms a Pending order with a compare-and-swap on the
// version it was read at, then marks the offer Used. The offer write is
// best-effort and never rolls the confirmation back.
func (s *orderService) ConfirmOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return nil, model.NewStoreError("failed to get order", err)
	}
	if order == nil {
		return nil, model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order %s not found", id)
	}
	if order.Status != model.OrderStatusPending {
		return nil, model.NewInvalidStateError(model.ErrCodeOrderNotPending, "Order %s is %s and cannot be confirmed", id, order.Status)
	}

	now := s.clock.Now()
	order.Confirm(now, s.ids.ConfirmationNumber(now))

	confirmed, err := s.orderRepo.ReplaceOrder(ctx, order)
	if err != nil {
		if errors.Is(err, docstore.ErrPreconditionFailed) {
			s.logger.Warn().Str("order_id", id).Msg("order changed while confirming")
			return nil, model.NewInvalidStateError(model.ErrCodeConcurrentUpdate, "Order %s was modified concurrently", id)
		}
		return nil, model.NewStoreError("failed to confirm order", err)
	}

	s.logger.Info().
		Str("order_id", confirmed.ID).
		Str("confirmation_number", confirmed.ConfirmationNumber).
		Msg("order confirmed")

	s.markOfferUsed(ctx, confirmed)
	s.publish(ctx, events.OrderConfirmed, confirmed)

	return confirmed, nil
}

// markOfferUsed sets the referenced offer to Used. Failures are logged only.
func (s *orderService) markOfferUsed(ctx context.Context, order *model.Order) {
	logger := s.logger.With().
		Str("order_id", order.ID).
		Str("offer_id", order.OfferID).
		Logger()

	for attempt := 1; attempt <= offerUsedAttempts; attempt++ {
		offer, err := s.lookupOffer(ctx, order)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load offer after confirmation")
			return
		}
		if offer == nil {
			logger.Debug().Msg("offer no longer exists, nothing to mark used")
			return
		}
		if offer.Status.IsTerminal() {
			logger.Warn().Str("status", string(offer.Status)).Msg("marking terminal offer as used")
		}

		offer.Status = model.OfferStatusUsed
		_, err = s.offerRepo.ReplaceOffer(ctx, offer)
		if err == nil {
			logger.Debug().Msg("offer marked used")
			return
		}
		if !errors.Is(err, docstore.ErrPreconditionFailed) {
			logger.Warn().Err(err).Msg("failed to mark offer used")
			return
		}
		logger.Debug().Int("attempt", attempt).Msg("offer changed concurrently, retrying")
	}

	logger.Warn().Msg("gave up marking offer used")
}

func (s *orderService) lookupOffer(ctx context.Context, order *model.Order) (*model.Offer, error) {
	if order.FlightID != "" {
		return s.offerRepo.GetOfferInPartition(ctx, order.OfferID, order.FlightID)
	}
	return s.offerRepo.GetOffer(ctx, order.OfferID)
}

// CancelOrder forces the order to Cancelled. The prior status is not checked.
func (s *orderService) CancelOrder(ctx context.Context, id string) error {
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return model.NewStoreError("failed to get order", err)
	}
	if order == nil {
		return model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order %s not found", id)
	}

	previous := order.Status
	order.Status = model.OrderStatusCancelled
	cancelled, err := s.orderRepo.UpdateOrder(ctx, order)
	if err != nil {
		return model.NewStoreError("failed to cancel order", err)
	}

	s.logger.Info().
		Str("order_id", id).
		Str("previous_status", string(previous)).
		Msg("order cancelled")

	s.publish(ctx, events.OrderCancelled, cancelled)
	return nil
}

// UpdateOrderStatus applies an explicit status change with an optional reason.
// Pending and Confirmed cannot be set here, and terminal orders stay put.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id string, update *model.OrderStatusUpdate) error {
	if update == nil {
		return model.NewValidationError(model.ErrCodeInvalidJSON, "Status update is required")
	}
	if !update.Status.Valid() {
		return model.NewValidationError(model.ErrCodeInvalidStatus, "Unknown order status: %s", update.Status)
	}
	if !update.Status.Settable() {
		return model.NewInvalidStateError(model.ErrCodeInvalidTransition, "Order status cannot be set to %s", update.Status)
	}

	updated, err := s.orderRepo.UpdateOrderStatus(ctx, id, update.CustomerID, update.Status, strings.TrimSpace(update.Reason))
	if err != nil {
		if errors.Is(err, model.ErrInvalidState) {
			s.logger.Warn().
				Str("order_id", id).
				Str("requested_status", string(update.Status)).
				Msg("status change rejected for terminal order")
			return err
		}
		return model.NewStoreError("failed to update order status", err)
	}
	if updated == nil {
		return model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order %s not found", id)
	}

	s.logger.Info().
		Str("order_id", id).
		Str("status", string(updated.Status)).
		Msg("order status updated")

	s.publish(ctx, events.OrderStatusChanged, updated)
	return nil
}

// SearchOrders filters orders by criteria.
func (s *orderService) SearchOrders(ctx context.Context, criteria model.OrderSearchCriteria) ([]model.Order, error) {
	if err := validateRange(criteria.MinAmount, criteria.MaxAmount, criteria.CreatedAfter, criteria.CreatedBefore); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.SearchOrders(ctx, criteria)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return nil, model.NewStoreError("failed to search orders", err)
	}
	return orders, nil
}

// publish emits an order event. Delivery failures are logged, not returned.
func (s *orderService) publish(ctx context.Context, eventType string, order *model.Order) {
	event := events.NewOrderEvent(eventType, order, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().
			Err(err).
			Str("type", eventType).
			Str("order_id", order.ID).
			Msg("failed to publish order event")
	}
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidationError(model.ErrCodeInvalidJSON, "Order request is required")
	}
	if strings.TrimSpace(req.OfferID) == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "offerId is required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return model.NewValidationError(model.ErrCodeMissingField, "customerId is required")
	}
	if len(req.OrderItems) == 0 {
		return model.NewValidationError(model.ErrCodeMissingField, "Order must contain at least one item")
	}

	for i, item := range req.OrderItems {
		if item.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Int("quantity", item.Quantity).
				Msg("invalid quantity in order request")
			return model.ErrInvalidQuantity
		}
		if !item.UnitPrice.IsPositive() {
			s.logger.Warn().
				Int("item_index", i).
				Str("unit_price", item.UnitPrice.String()).
				Msg("invalid unit price in order request")
			return model.ErrInvalidPrice
		}
	}

	return nil
}
