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

// orderRepository implements the OrderRepository interface over a document store.
type orderRepository struct {
	orders *docstore.Collection[model.Order, *model.Order]
	clock  clock.Clock
	ids    idgen.Generator
	logger zerolog.Logger
}

// NewOrderRepository creates a new order repository. index may be nil.
func NewOrderRepository(store docstore.Store, index docstore.PartitionIndex, clk clock.Clock, ids idgen.Generator, logger zerolog.Logger) OrderRepository {
	logger = logger.With().Str("repository", "order").Logger()
	return &orderRepository{
		orders: docstore.NewCollection[model.Order, *model.Order](store, OrdersCollection, index, logger),
		clock:  clk,
		ids:    ids,
		logger: logger,
	}
}

// CreateOrder inserts a new order. The confirmation number is left unset.
func (r *orderRepository) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.ID == "" {
		order.ID = r.ids.NewID()
	}
	now := r.clock.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	created, err := r.orders.Create(ctx, order)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Str("customer_id", order.CustomerID).
			Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", created.ID).
		Str("customer_id", created.CustomerID).
		Str("offer_id", created.OfferID).
		Msg("order created successfully")

	return created, nil
}

// GetOrder retrieves an order by id.
func (r *orderRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := r.orders.FindByID(ctx, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		r.logger.Debug().Str("order_id", id).Msg("order not found")
	}
	return order, nil
}

// GetOrderInPartition reads an order from a known customer partition.
func (r *orderRepository) GetOrderInPartition(ctx context.Context, id, customerID string) (*model.Order, error) {
	order, err := r.orders.Get(ctx, id, customerID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id).
			Str("customer_id", customerID).
			Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// GetOrdersByCustomer returns the orders in a customer partition.
func (r *orderRepository) GetOrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	orders, err := r.orders.Query(ctx, docstore.Query{
		PartitionKey: customerID,
		Sort:         newestFirst(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", customerID).Msg("failed to get orders by customer")
		return nil, fmt.Errorf("failed to get orders by customer: %w", err)
	}
	return orders, nil
}

// GetOrdersByFlight returns the orders for a flight across customers.
func (r *orderRepository) GetOrdersByFlight(ctx context.Context, flightID string) ([]model.Order, error) {
	orders, err := r.orders.Query(ctx, docstore.Query{
		Predicates: []docstore.Predicate{docstore.Eq("flightId", flightID)},
		Sort:       newestFirst(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("flight_id", flightID).Msg("failed to get orders by flight")
		return nil, fmt.Errorf("failed to get orders by flight: %w", err)
	}
	return orders, nil
}

// GetOrdersByOffer returns the orders placed against an offer.
func (r *orderRepository) GetOrdersByOffer(ctx context.Context, offerID string) ([]model.Order, error) {
	orders, err := r.orders.Query(ctx, docstore.Query{
		Predicates: []docstore.Predicate{docstore.Eq("offerId", offerID)},
		Sort:       newestFirst(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", offerID).Msg("failed to get orders by offer")
		return nil, fmt.Errorf("failed to get orders by offer: %w", err)
	}
	return orders, nil
}

// UpdateOrder stamps lifecycle timestamps and writes the order unconditionally.
func (r *orderRepository) UpdateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	order.StampLifecycle(r.clock.Now())

	updated, err := r.orders.Upsert(ctx, order)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to update order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", updated.ID).
		Str("status", string(updated.Status)).
		Msg("order updated successfully")

	return updated, nil
}

// ReplaceOrder stamps lifecycle timestamps and writes the order if its stored
// version is unchanged.
func (r *orderRepository) ReplaceOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	order.StampLifecycle(r.clock.Now())

	updated, err := r.orders.Replace(ctx, order)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("order_id", order.ID).
			Int64("version", order.Version()).
			Msg("failed to replace order")
		return nil, fmt.Errorf("failed to replace order: %w", err)
	}
	return updated, nil
}

// UpdateOrderStatus sets the status and records the reason in the notes.
// An empty customerID falls back to a lookup by id. Orders in a terminal
// state are left untouched and an InvalidState error is returned.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id, customerID string, status model.OrderStatus, reason string) (*model.Order, error) {
	var (
		order *model.Order
		err   error
	)
	if customerID != "" {
		order, err = r.GetOrderInPartition(ctx, id, customerID)
	} else {
		order, err = r.GetOrder(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}
	if err := order.CheckTransition(status); err != nil {
		r.logger.Debug().
			Str("order_id", id).
			Str("status", string(order.Status)).
			Str("requested_status", string(status)).
			Msg("status change rejected")
		return nil, err
	}

	order.Status = status
	order.AppendNote(reason)

	return r.UpdateOrder(ctx, order)
}

// DeleteOrder removes an order by id.
func (r *orderRepository) DeleteOrder(ctx context.Context, id string) error {
	order, err := r.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	if err := r.orders.Delete(ctx, order.ID, order.CustomerID); err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	r.logger.Debug().Str("order_id", id).Msg("order deleted successfully")
	return nil
}

// OrderExists reports whether an order is stored.
func (r *orderRepository) OrderExists(ctx context.Context, id string) (bool, error) {
	order, err := r.GetOrder(ctx, id)
	if err != nil {
		return false, err
	}
	return order != nil, nil
}

// SearchOrders filters orders by criteria.
func (r *orderRepository) SearchOrders(ctx context.Context, criteria model.OrderSearchCriteria) ([]model.Order, error) {
	q, err := orderSearchQuery(criteria)
	if err != nil {
		return nil, err
	}

	orders, err := r.orders.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to search orders")
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}
	return orders, nil
}

func newestFirst() *docstore.Sort {
	return &docstore.Sort{Field: "createdAt", Kind: docstore.SortTime, Descending: true}
}
