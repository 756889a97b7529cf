package service

import (
	"context"
	"fmt"

	"marketplace-api/internal/dedup"
	"marketplace-api/internal/model"
	"marketplace-api/internal/payment"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	orders      OrderService
	gateway     CheckoutGateway
	verifier    WebhookVerifier
	processed   dedup.Store
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	orders OrderService,
	gateway CheckoutGateway,
	verifier WebhookVerifier,
	processed dedup.Store,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		orders:      orders,
		gateway:     gateway,
		verifier:    verifier,
		processed:   processed,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// CreateCheckoutSession creates a provider-hosted payment session for one of
// the caller's orders. Order status stays untouched until the provider's
// verified callback arrives.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, caller model.Identity, orderID uuid.UUID) (*payment.CheckoutSession, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load order for checkout")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if len(order.Items) == 0 {
		return nil, model.NewDomainError(model.ErrCodeValidation, "Order has no items")
	}

	lineItems := make([]payment.LineItem, len(order.Items))
	for i, item := range order.Items {
		line := payment.LineItem{
			Name:      item.ProductName,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		}

		// Description is display-only, so a live catalogue read is fine; a
		// since-deleted product just ships without one.
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to create checkout session: %w", err)
		}
		if product != nil {
			line.Description = product.Description
		}

		lineItems[i] = line
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:   order.ID,
		LineItems: lineItems,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("checkout session creation failed")
		return nil, err
	}

	return session, nil
}

// HandleWebhook verifies the callback signature before trusting any content,
// deduplicates redelivered events, and applies payment confirmations.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	evt, err := s.verifier.ConstructEvent(payload, sigHeader)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected webhook with invalid signature")
		return err
	}

	if evt.Type != payment.EventCheckoutCompleted {
		s.logger.Debug().Str("event_type", evt.Type).Msg("ignoring unhandled webhook event type")
		return nil
	}

	seen, err := s.processed.Seen(ctx, evt.ID)
	if err != nil {
		// Dedup is an optimisation on top of the idempotent transition, not
		// a correctness requirement; keep going if the store is down.
		s.logger.Warn().Err(err).Str("event_id", evt.ID).Msg("dedup store unavailable, processing anyway")
	} else if seen {
		s.logger.Info().Str("event_id", evt.ID).Msg("duplicate webhook delivery, skipping")
		return nil
	}

	orderID, ok := evt.OrderID()
	if !ok {
		s.logger.Warn().Str("event_id", evt.ID).Msg("webhook event without resolvable order id, ignoring")
		return nil
	}

	if err := s.orders.ConfirmPayment(ctx, orderID); err != nil {
		// Not recorded: the provider retries on our error response, and the
		// retry must be processed, not swallowed as a duplicate.
		return err
	}

	// Record only after the event has been fully applied. A failed write
	// here just means the retry does one more idempotent confirmation.
	if err := s.processed.MarkProcessed(ctx, evt.ID); err != nil {
		s.logger.Warn().Err(err).Str("event_id", evt.ID).Msg("failed to record processed event")
	}

	return nil
}
