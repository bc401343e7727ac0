package handler

import (
	"net/http"

	"ancillary-api/internal/model"
	"ancillary-api/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

func (h *OrderHandler) log(r *http.Request) zerolog.Logger {
	return requestLogger(r, h.logger, "order")
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeBody(w, r, &req, h.log(r)) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to create order", h.log(r))
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound, "order not found", h.log(r))
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListByCustomer handles GET /api/orders/customer/{customerId} requests.
func (h *OrderHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrdersByCustomer(r.Context(), r.PathValue("customerId"))
	writeList(w, orders, err, "failed to list orders by customer", h.log(r))
}

// ListByFlight handles GET /api/orders/flight/{flightId} requests.
func (h *OrderHandler) ListByFlight(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrdersByFlight(r.Context(), r.PathValue("flightId"))
	writeList(w, orders, err, "failed to list orders by flight", h.log(r))
}

// ListByOffer handles GET /api/orders/offer/{offerId} requests.
func (h *OrderHandler) ListByOffer(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrdersByOffer(r.Context(), r.PathValue("offerId"))
	writeList(w, orders, err, "failed to list orders by offer", h.log(r))
}

// Search handles GET /api/orders/search requests.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseOrderCriteria(r.URL.Query())
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "invalid search criteria", h.log(r))
		return
	}

	orders, err := h.service.SearchOrders(r.Context(), criteria)
	writeList(w, orders, err, "failed to search orders", h.log(r))
}

// Confirm handles POST /api/orders/{id}/confirm requests.
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.ConfirmOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to confirm order", h.log(r))
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var update model.OrderStatusUpdate
	if !decodeBody(w, r, &update, h.log(r)) {
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), r.PathValue("id"), &update); err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to update order status", h.log(r))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles DELETE /api/orders/{id} requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelOrder(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to cancel order", h.log(r))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
