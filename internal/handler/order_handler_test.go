package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ancillary-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOrder() *model.Order {
	now := time.Date(2026, 3, 4, 10, 5, 0, 0, time.UTC)
	items := []model.OrderItem{
		{ID: "i1", OfferID: "o1", OfferType: "Baggage", Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")},
		{ID: "i2", OfferID: "o1", OfferType: "Baggage", Quantity: 2, UnitPrice: decimal.RequireFromString("6.50")},
	}
	return &model.Order{
		ID:          "ord1",
		CustomerID:  "C1",
		FlightID:    "FL1",
		OfferID:     "o1",
		OrderItems:  items,
		TotalAmount: model.SumItems(items),
		Currency:    "USD",
		Status:      model.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOrderHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Order
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           `{"customerId":"C1","offerId":"o1","orderItems":[{"quantity":1,"unitPrice":12.5},{"quantity":2,"unitPrice":6.5}]}`,
			mockReturn:     testOrder(),
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Invalid JSON",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Offer not found",
			body:           `{"customerId":"C1","offerId":"missing","orderItems":[{"quantity":1,"unitPrice":1}]}`,
			mockError:      model.NewNotFoundError(model.ErrCodeOfferNotFound, "Offer missing not found"),
			expectService:  true,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeOfferNotFound,
		},
		{
			name:           "Offer expired",
			body:           `{"customerId":"C1","offerId":"o1","orderItems":[{"quantity":1,"unitPrice":1}]}`,
			mockError:      model.NewInvalidStateError(model.ErrCodeOfferExpired, "Offer o1 has expired"),
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeOfferExpired,
		},
		{
			name:           "Invalid quantity",
			body:           `{"customerId":"C1","offerId":"o1","orderItems":[{"quantity":0,"unitPrice":1}]}`,
			mockError:      model.ErrInvalidQuantity,
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidQuantity,
		},
		{
			name:           "Unexpected failure",
			body:           `{"customerId":"C1","offerId":"o1","orderItems":[{"quantity":1,"unitPrice":1}]}`,
			mockError:      errors.New("boom"),
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, zerolog.Nop())

			if tt.expectService {
				mockService.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.OrderRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			}
			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestOrderHandler_Create_ResponseShape(t *testing.T) {
	mockService := new(MockOrderService)
	handler := NewOrderHandler(mockService, zerolog.Nop())
	mockService.On("CreateOrder", mock.Anything, mock.Anything).Return(testOrder(), nil)

	body := `{"customerId":"C1","offerId":"o1","orderItems":[{"quantity":1,"unitPrice":12.5}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got struct {
		Status      string          `json:"status"`
		TotalAmount decimal.Decimal `json:"totalAmount"`
		OrderItems  []struct {
			TotalPrice decimal.Decimal `json:"totalPrice"`
		} `json:"orderItems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Pending", got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25.50")))
	require.Len(t, got.OrderItems, 2)
	assert.True(t, got.OrderItems[1].TotalPrice.Equal(decimal.NewFromInt(13)))
}

func TestOrderHandler_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
	}{
		{name: "Found", mockReturn: testOrder(), expectedStatus: http.StatusOK},
		{
			name:           "Not found",
			mockError:      model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order ord1 not found"),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Unexpected failure reads as not found",
			mockError:      errors.New("timeout"),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, zerolog.Nop())
			mockService.On("GetOrder", mock.Anything, "ord1").Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodGet, "/api/orders/ord1", nil)
			req.SetPathValue("id", "ord1")
			w := httptest.NewRecorder()

			handler.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Lists(t *testing.T) {
	mockService := new(MockOrderService)
	handler := NewOrderHandler(mockService, zerolog.Nop())

	mockService.On("GetOrdersByCustomer", mock.Anything, "C1").Return([]model.Order{*testOrder()}, nil)
	mockService.On("GetOrdersByFlight", mock.Anything, "FL1").Return(nil, errors.New("store down"))
	mockService.On("GetOrdersByOffer", mock.Anything, "o1").Return(nil, nil)

	tests := []struct {
		name     string
		path     string
		param    string
		value    string
		call     func(http.ResponseWriter, *http.Request)
		expected int
	}{
		{name: "By customer", path: "/api/orders/customer/C1", param: "customerId", value: "C1", call: handler.ListByCustomer, expected: 1},
		{name: "By flight degrades to empty", path: "/api/orders/flight/FL1", param: "flightId", value: "FL1", call: handler.ListByFlight, expected: 0},
		{name: "By offer with no orders", path: "/api/orders/offer/o1", param: "offerId", value: "o1", call: handler.ListByOffer, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.SetPathValue(tt.param, tt.value)
			w := httptest.NewRecorder()

			tt.call(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			var orders []model.Order
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
			assert.NotNil(t, orders)
			assert.Len(t, orders, tt.expected)
		})
	}

	mockService.AssertExpectations(t)
}

func TestOrderHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectService  bool
		expected       model.OrderSearchCriteria
		expectedStatus int
	}{
		{
			name:          "Customer and status",
			query:         "?customerId=C1&status=Confirmed",
			expectService: true,
			expected: model.OrderSearchCriteria{
				CustomerID:     "C1",
				Status:         model.OrderStatusConfirmed,
				SortBy:         "createdAt",
				SortDescending: true,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "Sort by amount ascending",
			query:         "?offerId=o1&sortBy=totalAmount&sortOrder=ASC",
			expectService: true,
			expected: model.OrderSearchCriteria{
				OfferID: "o1",
				SortBy:  "totalAmount",
			},
			expectedStatus: http.StatusOK,
		},
		{name: "Bad status", query: "?status=Shipped", expectedStatus: http.StatusBadRequest},
		{name: "Bad amount", query: "?minAmount=ten", expectedStatus: http.StatusBadRequest},
		{name: "Bad timestamp", query: "?createdBefore=yesterday", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, zerolog.Nop())
			if tt.expectService {
				mockService.On("SearchOrders", mock.Anything, tt.expected).Return([]model.Order{}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/orders/search"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.Search(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "SearchOrders", mock.Anything, mock.Anything)
				assert.Contains(t, []string{model.ErrCodeInvalidStatus, model.ErrCodeInvalidCriteria}, decodeError(t, w).Code)
			}
		})
	}
}

func TestOrderHandler_Confirm(t *testing.T) {
	confirmed := testOrder()
	confirmed.Confirm(time.Date(2026, 3, 4, 10, 6, 0, 0, time.UTC), "AA202603041234")

	tests := []struct {
		name           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{name: "Confirmed", mockReturn: confirmed, expectedStatus: http.StatusOK},
		{
			name:           "Not pending",
			mockError:      model.NewInvalidStateError(model.ErrCodeOrderNotPending, "Order ord1 is Confirmed"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeOrderNotPending,
		},
		{
			name:           "Not found",
			mockError:      model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order ord1 not found"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeOrderNotFound,
		},
		{
			name:           "Store failure",
			mockError:      model.NewStoreError("failed to confirm order", errors.New("throttled")),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, zerolog.Nop())
			mockService.On("ConfirmOrder", mock.Anything, "ord1").Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodPost, "/api/orders/ord1/confirm", nil)
			req.SetPathValue("id", "ord1")
			w := httptest.NewRecorder()

			handler.Confirm(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			} else {
				var got model.Order
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, model.OrderStatusConfirmed, got.Status)
				assert.Equal(t, "AA202603041234", got.ConfirmationNumber)
			}
		})
	}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectService  bool
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Updated",
			body:           `{"customerId":"C1","status":"Completed","reason":"flown"}`,
			expectService:  true,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Malformed body",
			body:           `{"status":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown status",
			body:           `{"status":"Shipped"}`,
			expectService:  true,
			mockError:      model.NewValidationError(model.ErrCodeInvalidStatus, "Unknown order status: Shipped"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing order",
			body:           `{"status":"Failed"}`,
			expectService:  true,
			mockError:      model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order ord1 not found"),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Reset to pending",
			body:           `{"status":"Pending"}`,
			expectService:  true,
			mockError:      model.NewInvalidStateError(model.ErrCodeInvalidTransition, "Order status cannot be set to Pending"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidTransition,
		},
		{
			name:           "Set confirmed",
			body:           `{"status":"Confirmed"}`,
			expectService:  true,
			mockError:      model.NewInvalidStateError(model.ErrCodeInvalidTransition, "Order status cannot be set to Confirmed"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidTransition,
		},
		{
			name:           "Terminal order",
			body:           `{"status":"Processing"}`,
			expectService:  true,
			mockError:      model.NewInvalidStateError(model.ErrCodeInvalidTransition, "Order ord1 is Cancelled and cannot move to Processing"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, zerolog.Nop())
			if tt.expectService {
				mockService.On("UpdateOrderStatus", mock.Anything, "ord1", mock.AnythingOfType("*model.OrderStatusUpdate")).
					Return(tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/orders/ord1/status", bytes.NewBufferString(tt.body))
			req.SetPathValue("id", "ord1")
			w := httptest.NewRecorder()

			handler.UpdateStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			}
			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestOrderHandler_Cancel(t *testing.T) {
	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Cancelled", expectedStatus: http.StatusNoContent},
		{
			name:           "Not found",
			mockError:      model.NewNotFoundError(model.ErrCodeOrderNotFound, "Order ord1 not found"),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Store failure",
			mockError:      errors.New("boom"),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := NewOrderHandler(mockService, zerolog.Nop())
			mockService.On("CancelOrder", mock.Anything, "ord1").Return(tt.mockError)

			req := httptest.NewRequest(http.MethodDelete, "/api/orders/ord1", nil)
			req.SetPathValue("id", "ord1")
			w := httptest.NewRecorder()

			handler.Cancel(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.mockError == nil {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}
