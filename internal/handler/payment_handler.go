package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"marketplace-api/internal/model"
	"marketplace-api/internal/payment"
	"marketplace-api/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// PaymentHandler handles checkout-session and webhook HTTP requests.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// CreateCheckoutSession handles POST /api/payment/create-checkout-session.
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.OrderID == uuid.Nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "order_id is required", h.logger)
		return
	}

	session, err := h.service.CreateCheckoutSession(r.Context(), caller, req.OrderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Webhook handles POST /api/payment/webhook. The raw body is read before any
// parsing because the signature covers the exact bytes on the wire. Accepted
// events are always acknowledged with 200, including ones that resolve to a
// no-op, so the provider stops retrying.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "failed to read request body", h.logger)
		return
	}

	sigHeader := r.Header.Get(payment.SignatureHeader)
	if err := h.service.HandleWebhook(r.Context(), payload, sigHeader); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
