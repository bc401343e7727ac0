package router

import (
	"net/http"

	"ancillary-api/internal/handler"
	"ancillary-api/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	offerHandler *handler.OfferHandler,
	orderHandler *handler.OrderHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Offers. Literal segments take precedence over {id}.
	mux.HandleFunc("POST /api/offers", offerHandler.Create)
	mux.HandleFunc("GET /api/offers/active", offerHandler.ListActive)
	mux.HandleFunc("GET /api/offers/search", offerHandler.Search)
	mux.HandleFunc("POST /api/offers/cleanup", offerHandler.Cleanup)
	mux.HandleFunc("GET /api/offers/flight/{flightId}", offerHandler.ListByFlight)
	mux.HandleFunc("GET /api/offers/{id}", offerHandler.GetByID)
	mux.HandleFunc("DELETE /api/offers/{id}", offerHandler.Cancel)

	// Orders
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/search", orderHandler.Search)
	mux.HandleFunc("GET /api/orders/customer/{customerId}", orderHandler.ListByCustomer)
	mux.HandleFunc("GET /api/orders/flight/{flightId}", orderHandler.ListByFlight)
	mux.HandleFunc("GET /api/orders/offer/{offerId}", orderHandler.ListByOffer)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("POST /api/orders/{id}/confirm", orderHandler.Confirm)
	mux.HandleFunc("PUT /api/orders/{id}/status", orderHandler.UpdateStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", orderHandler.Cancel)

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
