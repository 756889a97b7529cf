package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"marketplace-api/internal/event"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   event.Publisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher event.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder creates an order with its items and stock reservations as one
// atomic transaction. Price and stock are read once per distinct product
// under the product's row lock, so the snapshot price, the total, and the
// stock check all come from the same read.
func (s *orderService) CreateOrder(ctx context.Context, caller model.Identity, req *model.OrderRequest) (*model.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Aggregate quantities per product first: the same product may appear
	// on several lines, and availability is judged against the combined
	// total, not line by line.
	required := make(map[uuid.UUID]int, len(req.Items))
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		if _, ok := required[line.ProductID]; !ok {
			productIDs = append(productIDs, line.ProductID)
		}
		required[line.ProductID] += line.Quantity
	}

	// Lock product rows in a stable order so concurrent multi-item orders
	// cannot deadlock each other.
	sort.Slice(productIDs, func(a, b int) bool {
		return bytes.Compare(productIDs[a][:], productIDs[b][:]) < 0
	})

	products := make(map[uuid.UUID]*model.Product, len(productIDs))
	for _, id := range productIDs {
		var product *model.Product
		product, err = s.productRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if product == nil {
			s.logger.Warn().Str("product_id", id.String()).Msg("order references unknown product")
			err = model.ErrProductNotFound
			return nil, err
		}

		if product.StockQuantity < required[id] {
			s.logger.Info().
				Str("product_id", product.ID.String()).
				Int("requested", required[id]).
				Int("available", product.StockQuantity).
				Msg("insufficient stock")
			err = &model.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   required[id],
				Available:   product.StockQuantity,
			}
			return nil, err
		}

		products[id] = product
	}

	now := time.Now()
	total := decimal.Zero
	items := make([]model.OrderItem, len(req.Items))
	orderID := uuid.New()

	for i, line := range req.Items {
		product := products[line.ProductID]
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items[i] = model.OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			LineNumber:  i + 1,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       product.Price,
			CreatedAt:   now,
		}
	}

	order := &model.Order{
		ID:          orderID,
		UserID:      caller.UserID,
		TotalAmount: total,
		Status:      model.OrderStatusPending,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	for _, id := range productIDs {
		if err = s.productRepo.DecrementStock(ctx, tx, id, required[id]); err != nil {
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publisher.OrderCreated(ctx, order)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", caller.UserID.String()).
		Str("total_amount", total.StringFixed(2)).
		Int("item_count", len(items)).
		Msg("order created successfully")

	return order, nil
}

// GetByID retrieves one of the caller's orders with its item snapshots.
func (s *orderService) GetByID(ctx context.Context, caller model.Identity, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// ListOrders retrieves all of the caller's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, caller model.Identity) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// Pay performs the owner's manual pending -> processing transition. A second
// payment attempt observes the updated status and is rejected with a conflict.
func (s *orderService) Pay(ctx context.Context, caller model.Identity, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load order for payment")
		return nil, fmt.Errorf("failed to pay order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if order.Status != model.OrderStatusPending {
		return nil, model.NewConflictError(order.Status, model.OrderStatusProcessing)
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to pay order: %w", err)
	}
	if !updated {
		// Lost the race against a concurrent payment confirmation.
		return nil, model.NewConflictError(model.OrderStatusPending, model.OrderStatusProcessing)
	}

	order.Status = model.OrderStatusProcessing
	s.publisher.OrderStatusChanged(ctx, orderID, model.OrderStatusPending, model.OrderStatusProcessing)

	s.logger.Info().
		Str("order_id", orderID.String()).
		Msg("order payment confirmed by owner")

	return order, nil
}

// ConfirmPayment applies a verified payment-success notification from the
// provider. Unknown orders and orders already past pending are deliberately
// swallowed: the provider retries on non-2xx responses, and redeliveries must
// stay no-ops.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.GetByIDAny(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if order == nil {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Msg("payment notification for unknown order, ignoring")
		return nil
	}

	if order.Status != model.OrderStatusPending {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("status", string(order.Status)).
			Msg("payment notification for non-pending order, no-op")
		return nil
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if !updated {
		// A concurrent confirmation advanced the order first.
		s.logger.Info().Str("order_id", orderID.String()).Msg("order already advanced, no-op")
		return nil
	}

	s.publisher.OrderStatusChanged(ctx, orderID, model.OrderStatusPending, model.OrderStatusProcessing)

	s.logger.Info().
		Str("order_id", orderID.String()).
		Msg("order payment confirmed via provider notification")

	return nil
}

// validateOrderRequest validates the order request.
func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}

	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.NewDomainError(model.ErrCodeValidation,
				fmt.Sprintf("Item %d: product ID is required", i))
		}
		if item.Quantity <= 0 {
			return model.ErrInvalidQuantity
		}
	}

	return nil
}
