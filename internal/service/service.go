package service

import (
	"context"

	"marketplace-api/internal/model"
	"marketplace-api/internal/payment"

	"github.com/google/uuid"
)

// ProductService defines catalogue read operations.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// OrderService defines the order aggregate and its lifecycle operations.
// Every operation takes the caller's identity explicitly; nothing is read
// from ambient request state.
type OrderService interface {
	// CreateOrder atomically creates an order with its items and the
	// corresponding stock reservations.
	CreateOrder(ctx context.Context, caller model.Identity, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves one of the caller's orders. Another user's order
	// behaves as not found.
	GetByID(ctx context.Context, caller model.Identity, orderID uuid.UUID) (*model.Order, error)

	// ListOrders retrieves all of the caller's orders, newest first.
	ListOrders(ctx context.Context, caller model.Identity) ([]model.Order, error)

	// Pay performs the owner's manual pending -> processing transition.
	Pay(ctx context.Context, caller model.Identity, orderID uuid.UUID) (*model.Order, error)

	// ConfirmPayment applies a verified payment-success notification:
	// pending orders advance to processing, anything else is a logged no-op.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) error
}

// AdminService defines platform-wide order operations. Role authorisation
// happens at the boundary; these methods assume admin authority.
type AdminService interface {
	// ListOrders retrieves orders across all users with pagination.
	ListOrders(ctx context.Context, limit, offset int) ([]model.Order, error)

	// UpdateOrderStatus performs the administrative processing -> completed
	// or processing -> cancelled transition.
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// DashboardStats aggregates platform-wide order figures.
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// PaymentService coordinates the checkout-session gateway with the order
// lifecycle.
type PaymentService interface {
	// CreateCheckoutSession creates a provider-hosted payment session for
	// one of the caller's orders. It does not change order status.
	CreateCheckoutSession(ctx context.Context, caller model.Identity, orderID uuid.UUID) (*payment.CheckoutSession, error)

	// HandleWebhook verifies and applies an asynchronous provider callback.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// CheckoutGateway is the outbound provider boundary, satisfied by
// *payment.Client.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.CheckoutSession, error)
}

// WebhookVerifier authenticates inbound provider callbacks, satisfied by
// *payment.WebhookVerifier.
type WebhookVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (*payment.Event, error)
}
