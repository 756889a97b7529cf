// Package payment is the gateway to the hosted-checkout payment provider:
// outbound session creation and inbound webhook verification.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketplace-api/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.stripe.com"

// CheckoutSession is a provider-hosted payment flow tied to one order.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// SessionRequest describes the checkout session to create. The order id is
// embedded as session metadata so the webhook can resolve the order later.
type SessionRequest struct {
	OrderID   uuid.UUID
	LineItems []LineItem
}

// LineItem is one provider line item, priced in decimal currency; the
// client converts to the provider's minor-unit convention.
type LineItem struct {
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// ProviderError is a structured failure from the payment provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to the provider's REST API.
type Client struct {
	secretKey  string
	baseURL    string
	successURL string
	cancelURL  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a payment provider client.
func NewClient(cfg config.StripeConfig, logger zerolog.Logger) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    defaultBaseURL,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("client", "payment").Logger(),
	}
}

// CreateSession creates a hosted checkout session for the given order.
// It never touches order state; the status transition happens only after
// the provider's verified callback.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("metadata[order_id]", req.OrderID.String())

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(toMinorUnits(item.UnitPrice), 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("order_id", req.OrderID.String()).Msg("session request failed")
		return nil, &ProviderError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read session response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		provErr := &ProviderError{StatusCode: resp.StatusCode, Message: "checkout session creation failed"}
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &errBody) == nil && errBody.Error.Message != "" {
			provErr.Message = errBody.Error.Message
		}
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("order_id", req.OrderID.String()).
			Str("message", provErr.Message).
			Msg("provider rejected session creation")
		return nil, provErr
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	c.logger.Info().
		Str("order_id", req.OrderID.String()).
		Str("session_id", session.ID).
		Msg("checkout session created")

	return &CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// toMinorUnits converts a decimal currency amount to the provider's
// cents-based convention.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
