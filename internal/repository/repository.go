package repository

import (
	"context"

	"ancillary-api/internal/model"
)

// Collection names.
const (
	OffersCollection = "offers"
	OrdersCollection = "orders"
)

// Collections lists every collection the repositories use, for store initialisation.
var Collections = []string{OffersCollection, OrdersCollection}

// OfferRepository defines the data access operations for offers, partitioned by flight id.
type OfferRepository interface {
	// CreateOffer stamps the offer lifetime, marks it Active and persists it.
	CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error)

	// GetOffer retrieves an offer by id alone. Returns nil when absent.
	// Callers decide what an expired offer means.
	GetOffer(ctx context.Context, id string) (*model.Offer, error)

	// GetOfferInPartition is a point read when the flight id is known.
	GetOfferInPartition(ctx context.Context, id, flightID string) (*model.Offer, error)

	// GetOffersByFlight returns the Active, unexpired offers for a flight.
	GetOffersByFlight(ctx context.Context, flightID string) ([]model.Offer, error)

	// GetActiveOffers returns every Active, unexpired offer.
	GetActiveOffers(ctx context.Context) ([]model.Offer, error)

	// UpdateOffer writes the offer unconditionally.
	UpdateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error)

	// ReplaceOffer writes the offer only if it is unchanged since it was read.
	ReplaceOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error)

	// DeleteOffer removes the offer. Deleting a missing offer is not an error.
	DeleteOffer(ctx context.Context, id string) error

	// OfferExists reports whether an offer with id is stored.
	OfferExists(ctx context.Context, id string) (bool, error)

	// ExpireOffer sets the offer status to Expired. Returns false when absent.
	ExpireOffer(ctx context.Context, id string) (bool, error)

	// CleanupExpiredOffers expires every Active offer past its validUntil and
	// returns how many were updated.
	CleanupExpiredOffers(ctx context.Context) (int, error)

	// SearchOffers filters offers by criteria.
	SearchOffers(ctx context.Context, criteria model.OfferSearchCriteria) ([]model.Offer, error)
}

// OrderRepository defines the data access operations for orders, partitioned by customer id.
type OrderRepository interface {
	// CreateOrder stamps the timestamps and persists a new order.
	CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error)

	// GetOrder retrieves an order by id alone. Returns nil when absent.
	GetOrder(ctx context.Context, id string) (*model.Order, error)

	// GetOrderInPartition is a point read when the customer id is known.
	GetOrderInPartition(ctx context.Context, id, customerID string) (*model.Order, error)

	// GetOrdersByCustomer returns a customer's orders, newest first.
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error)

	// GetOrdersByFlight returns the orders for a flight, newest first.
	GetOrdersByFlight(ctx context.Context, flightID string) ([]model.Order, error)

	// GetOrdersByOffer returns the orders placed against an offer, newest first.
	GetOrdersByOffer(ctx context.Context, offerID string) ([]model.Order, error)

	// UpdateOrder stamps lifecycle timestamps and writes the order unconditionally.
	UpdateOrder(ctx context.Context, order *model.Order) (*model.Order, error)

	// ReplaceOrder is UpdateOrder guarded by the version the order was read at.
	ReplaceOrder(ctx context.Context, order *model.Order) (*model.Order, error)

	// UpdateOrderStatus sets the status and appends reason to the notes.
	// Returns nil when the order does not exist.
	UpdateOrderStatus(ctx context.Context, id, customerID string, status model.OrderStatus, reason string) (*model.Order, error)

	// DeleteOrder removes the order. Deleting a missing order is not an error.
	DeleteOrder(ctx context.Context, id string) error

	// OrderExists reports whether an order with id is stored.
	OrderExists(ctx context.Context, id string) (bool, error)

	// SearchOrders filters orders by criteria.
	SearchOrders(ctx context.Context, criteria model.OrderSearchCriteria) ([]model.Order, error)
}
