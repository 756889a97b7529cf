package service

import (
	"context"
	"fmt"

	"marketplace-api/internal/event"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// adminService implements AdminService.
type adminService struct {
	orderRepo repository.OrderRepository
	publisher event.Publisher
	logger    zerolog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(orderRepo repository.OrderRepository, publisher event.Publisher, logger zerolog.Logger) AdminService {
	return &adminService{
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger.With().Str("service", "admin").Logger(),
	}
}

// ListOrders retrieves orders across all users with pagination.
func (s *adminService) ListOrders(ctx context.Context, limit, offset int) ([]model.Order, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.ListAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list all orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus performs the administrative transition out of
// processing. Attempts out of terminal states are rejected, never ignored.
func (s *adminService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	// Admins settle orders; payment confirmation stays with the owner and
	// the provider callback.
	if status != model.OrderStatusCompleted && status != model.OrderStatusCancelled {
		return nil, model.NewDomainError(model.ErrCodeValidation,
			fmt.Sprintf("Admin may only set status to %s or %s", model.OrderStatusCompleted, model.OrderStatusCancelled))
	}

	order, err := s.orderRepo.GetByIDAny(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load order for status update")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !model.CanTransition(order.Status, status) {
		return nil, model.NewConflictError(order.Status, status)
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, orderID, order.Status, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		// The order moved under us; report the conflict rather than retrying.
		return nil, model.NewConflictError(order.Status, status)
	}

	from := order.Status
	order.Status = status
	s.publisher.OrderStatusChanged(ctx, orderID, from, status)

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("order status updated by admin")

	return order, nil
}

// DashboardStats aggregates platform-wide order figures.
func (s *adminService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats, err := s.orderRepo.GetStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate dashboard stats")
		return nil, fmt.Errorf("failed to aggregate dashboard stats: %w", err)
	}

	return stats, nil
}
