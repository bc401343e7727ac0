package handler

import (
	"net/http"

	"ancillary-api/internal/model"
	"ancillary-api/internal/service"

	"github.com/rs/zerolog"
)

// OfferHandler handles offer-related HTTP requests.
type OfferHandler struct {
	service service.OfferService
	logger  zerolog.Logger
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(service service.OfferService, logger zerolog.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		logger:  logger.With().Str("handler", "offer").Logger(),
	}
}

func (h *OfferHandler) log(r *http.Request) zerolog.Logger {
	return requestLogger(r, h.logger, "offer")
}

// Create handles POST /api/offers requests.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOfferRequest
	if !decodeBody(w, r, &req, h.log(r)) {
		return
	}

	offer, err := h.service.CreateOffer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to create offer", h.log(r))
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// GetByID handles GET /api/offers/{id} requests.
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	offer, err := h.service.GetOffer(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, http.StatusNotFound, "offer not found", h.log(r))
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// ListByFlight handles GET /api/offers/flight/{flightId} requests.
func (h *OfferHandler) ListByFlight(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.GetOffersByFlight(r.Context(), r.PathValue("flightId"))
	writeList(w, offers, err, "failed to list offers by flight", h.log(r))
}

// ListActive handles GET /api/offers/active requests.
func (h *OfferHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.GetActiveOffers(r.Context())
	writeList(w, offers, err, "failed to list active offers", h.log(r))
}

// Search handles GET /api/offers/search requests.
func (h *OfferHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseOfferCriteria(r.URL.Query())
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "invalid search criteria", h.log(r))
		return
	}

	offers, err := h.service.SearchOffers(r.Context(), criteria)
	writeList(w, offers, err, "failed to search offers", h.log(r))
}

// Cleanup handles POST /api/offers/cleanup requests.
func (h *OfferHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CleanupExpiredOffers(r.Context())
	if err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to clean up expired offers", h.log(r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"expired": count})
}

// Cancel handles DELETE /api/offers/{id} requests.
func (h *OfferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelOffer(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, http.StatusBadRequest, "failed to cancel offer", h.log(r))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
