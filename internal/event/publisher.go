package event

import (
	"context"
	"encoding/json"

	"marketplace-api/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

// Publisher emits order events for downstream consumers. Publishing is
// fire-and-forget: a broker outage never fails the business operation.
type Publisher interface {
	OrderCreated(ctx context.Context, order *model.Order)
	OrderStatusChanged(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus)
	Close() error
}

// kafkaPublisher writes order events to a single Kafka topic keyed by
// order id.
type kafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher with an async writer.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	p := &kafkaPublisher{
		logger: logger.With().Str("publisher", "kafka").Logger(),
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				p.logger.Error().Err(err).Int("count", len(messages)).Msg("failed to deliver order events")
			}
		},
	}
	return p
}

func (p *kafkaPublisher) OrderCreated(ctx context.Context, order *model.Order) {
	payload := OrderCreatedPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Items: lo.Map(order.Items, func(item model.OrderItem, _ int) OrderItemDetail {
			return OrderItemDetail{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price.StringFixed(2),
			}
		}),
	}
	p.publish(ctx, TypeOrderCreated, order.ID, payload)
}

func (p *kafkaPublisher) OrderStatusChanged(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus) {
	p.publish(ctx, TypeOrderStatusChanged, orderID, OrderStatusChangedPayload{
		OrderID: orderID,
		From:    from,
		To:      to,
	})
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, orderID uuid.UUID, payload any) {
	env, err := newEnvelope(eventType, orderID, payload)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build event envelope")
		return
	}

	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event envelope")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID.String()),
		Value: value,
	})
	if err != nil {
		// Async writer only errors here on serialisation/context problems;
		// delivery failures surface in the Completion callback.
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to enqueue order event")
	}
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// nopPublisher discards all events. Used when Kafka is disabled and in tests.
type nopPublisher struct{}

// NewNopPublisher creates a publisher that discards all events.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) OrderCreated(context.Context, *model.Order) {}
func (nopPublisher) OrderStatusChanged(context.Context, uuid.UUID, model.OrderStatus, model.OrderStatus) {
}
func (nopPublisher) Close() error { return nil }
