package handler

import (
	"encoding/json"
	"net/http"

	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles administrative order HTTP requests. Role checks are
// done by the router middleware, not here.
type AdminHandler struct {
	service service.AdminService
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

// ListOrders handles GET /api/admin/orders requests across all users.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePagination(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status requests.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req model.OrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	status, err := model.ToOrderStatus(req.Status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), orderID, status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Dashboard handles GET /api/admin/dashboard requests.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
