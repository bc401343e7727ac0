package service

import (
	"context"

	"ancillary-api/internal/model"
)

// OfferService defines operations for offer management.
type OfferService interface {
	// CreateOffer validates the request and stores a new Active offer.
	CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error)

	// GetOffer retrieves an offer. Missing and time-expired offers are NotFound.
	GetOffer(ctx context.Context, id string) (*model.Offer, error)

	// GetOffersByFlight lists the live Active offers of a flight.
	GetOffersByFlight(ctx context.Context, flightID string) ([]model.Offer, error)

	// GetActiveOffers lists every live Active offer.
	GetActiveOffers(ctx context.Context) ([]model.Offer, error)

	// CancelOffer forces the offer to Cancelled from any status.
	CancelOffer(ctx context.Context, id string) error

	// SearchOffers filters offers by criteria.
	SearchOffers(ctx context.Context, criteria model.OfferSearchCriteria) ([]model.Offer, error)

	// CleanupExpiredOffers writes Expired on Active offers past validUntil.
	CleanupExpiredOffers(ctx context.Context) (int, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder converts an available offer into a Pending order.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetOrder retrieves an order by id.
	GetOrder(ctx context.Context, id string) (*model.Order, error)

	// GetOrdersByCustomer lists a customer's orders.
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error)

	// GetOrdersByFlight lists the orders for a flight.
	GetOrdersByFlight(ctx context.Context, flightID string) ([]model.Order, error)

	// GetOrdersByOffer lists the orders placed against an offer.
	GetOrdersByOffer(ctx context.Context, offerID string) ([]model.Order, error)

	// ConfirmOrder confirms a Pending order and marks its offer Used.
	ConfirmOrder(ctx context.Context, id string) (*model.Order, error)

	// CancelOrder forces the order to Cancelled from any status.
	CancelOrder(ctx context.Context, id string) error

	// UpdateOrderStatus applies an explicit status change with an optional reason.
	UpdateOrderStatus(ctx context.Context, id string, update *model.OrderStatusUpdate) error

	// SearchOrders filters orders by criteria.
	SearchOrders(ctx context.Context, criteria model.OrderSearchCriteria) ([]model.Order, error)
}
