package handler

import (
	"encoding/json"
	"net/http"

	"marketplace-api/internal/middleware"
	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
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

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), caller, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders requests, scoped to the caller's own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), caller)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), caller, orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Pay handles POST /api/orders/{id}/pay requests.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.Pay(r.Context(), caller, orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// callerIdentity pulls the authenticated identity set by the middleware.
// A missing identity means the route was wired outside the auth group.
func callerIdentity(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (model.Identity, bool) {
	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", logger)
		return model.Identity{}, false
	}
	return caller, true
}

func orderIDParam(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", logger)
		return uuid.Nil, false
	}
	return orderID, true
}
