package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// validNext encodes the order state machine. completed and cancelled are
// terminal: nothing transitions out of them.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusProcessing: true},
	OrderStatusProcessing: {OrderStatusCompleted: true, OrderStatusCancelled: true},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// ToOrderStatus parses a status string, rejecting unknown values.
func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validNext[status]; ok {
		return status, nil
	}
	return "", NewDomainError(ErrCodeValidation, "invalid order status: "+s)
}

// Order represents a customer purchase with its line items.
// TotalAmount is computed once at creation from the item snapshots and is
// never recomputed from live product prices.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"userId" db:"user_id"`
	TotalAmount decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status      OrderStatus     `json:"status" db:"status"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line item within an order. ProductName and Price are
// snapshots taken at order creation time, immune to later catalogue edits.
type OrderItem struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	LineNumber  int             `json:"-" db:"line_number"`
	ProductID   uuid.UUID       `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CreatedAt   time.Time       `json:"-" db:"created_at"`
}

// OrderRequest is the payload for creating an order.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// OrderItemRequest is a single requested line: a product and a quantity.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// CheckoutSessionRequest asks for a provider-hosted payment session for
// an existing order.
type CheckoutSessionRequest struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderStatusRequest is the admin payload for a status transition.
type OrderStatusRequest struct {
	Status string `json:"status"`
}

// DashboardStats aggregates platform-wide order figures for the admin
// dashboard.
type DashboardStats struct {
	TotalOrders   int             `json:"totalOrders"`
	PendingOrders int             `json:"pendingOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}
