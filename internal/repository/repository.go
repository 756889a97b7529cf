package repository

import (
	"context"

	"marketplace-api/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue reads and the
// inventory ledger writes used during order creation.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetForUpdate retrieves a product inside the given transaction while
	// holding a row lock, so that price and stock are read from a single
	// consistent snapshot that concurrent orders serialise against.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error)

	// DecrementStock atomically reduces a product's stock within the given
	// transaction. The caller must have verified availability under the same
	// row lock.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

// OrderRepository defines the interface for order persistence and the
// guarded status transitions of the lifecycle engine.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order owned by the given user, items included.
	// Returns nil when the order does not exist or belongs to someone else,
	// so callers cannot distinguish the two cases.
	GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)

	// GetByIDAny retrieves an order regardless of owner. Used by the webhook
	// handler and admin operations only.
	GetByIDAny(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// ListByUser retrieves all orders of one user, newest first, items included.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// ListAll retrieves orders across all users with pagination, newest first.
	ListAll(ctx context.Context, limit, offset int) ([]model.Order, error)

	// UpdateStatus performs the guarded check-then-set transition
	// from -> to. It reports false when the order was not in the expected
	// status, which callers treat as a conflict.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus) (bool, error)

	// GetStats aggregates platform-wide order counts and completed revenue.
	GetStats(ctx context.Context) (*model.DashboardStats, error)
}
