package event

import (
	"encoding/json"
	"time"

	"marketplace-api/internal/model"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated       = "OrderCreated"
	TypeOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every published order event. The order id doubles as the
// partition key so all events of one order stay ordered.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	OrderID    uuid.UUID       `json:"order_id"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderCreatedPayload describes a newly created order.
type OrderCreatedPayload struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      uuid.UUID         `json:"user_id"`
	TotalAmount string            `json:"total_amount"`
	Items       []OrderItemDetail `json:"items"`
}

// OrderItemDetail is one line of an OrderCreated event.
type OrderItemDetail struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
}

// OrderStatusChangedPayload describes a lifecycle transition.
type OrderStatusChangedPayload struct {
	OrderID uuid.UUID         `json:"order_id"`
	From    model.OrderStatus `json:"from"`
	To      model.OrderStatus `json:"to"`
}

func newEnvelope(eventType string, orderID uuid.UUID, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    uuid.New(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		OrderID:    orderID,
		Payload:    raw,
	}, nil
}
