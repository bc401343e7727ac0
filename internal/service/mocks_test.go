package service

import (
	"context"

	"ancillary-api/internal/events"
	"ancillary-api/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockOfferRepository is a mock implementation of OfferRepository.
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	args := m.Called(ctx, offer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) GetOfferInPartition(ctx context.Context, id, flightID string) (*model.Offer, error) {
	args := m.Called(ctx, id, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) GetOffersByFlight(ctx context.Context, flightID string) ([]model.Offer, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferRepository) GetActiveOffers(ctx context.Context) ([]model.Offer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferRepository) UpdateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	args := m.Called(ctx, offer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) ReplaceOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	args := m.Called(ctx, offer)
	if fn, ok := args.Get(0).(func(context.Context, *model.Offer) *model.Offer); ok {
		return fn(ctx, offer), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) DeleteOffer(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferRepository) OfferExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOfferRepository) ExpireOffer(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOfferRepository) CleanupExpiredOffers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockOfferRepository) SearchOffers(ctx context.Context, criteria model.OfferSearchCriteria) ([]model.Offer, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, *model.Order) *model.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrderInPartition(ctx context.Context, id, customerID string) (*model.Order, error) {
	args := m.Called(ctx, id, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrdersByFlight(ctx context.Context, flightID string) ([]model.Order, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrdersByOffer(ctx context.Context, offerID string) ([]model.Order, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ReplaceOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, *model.Order) *model.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateOrderStatus(ctx context.Context, id, customerID string, status model.OrderStatus, reason string) (*model.Order, error) {
	args := m.Called(ctx, id, customerID, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) DeleteOrder(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) OrderExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SearchOrders(ctx context.Context, criteria model.OrderSearchCriteria) ([]model.Order, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
