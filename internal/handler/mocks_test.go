package handler

import (
	"context"

	"ancillary-api/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockOfferService is a mock implementation of OfferService.
type MockOfferService struct {
	mock.Mock
}

func (m *MockOfferService) CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.Offer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferService) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferService) GetOffersByFlight(ctx context.Context, flightID string) ([]model.Offer, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferService) GetActiveOffers(ctx context.Context) ([]model.Offer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferService) CancelOffer(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferService) SearchOffers(ctx context.Context, criteria model.OfferSearchCriteria) ([]model.Offer, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferService) CleanupExpiredOffers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrdersByFlight(ctx context.Context, flightID string) ([]model.Order, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrdersByOffer(ctx context.Context, offerID string) ([]model.Order, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id string, update *model.OrderStatusUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockOrderService) SearchOrders(ctx context.Context, criteria model.OrderSearchCriteria) ([]model.Order, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}
