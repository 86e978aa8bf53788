package fulfillment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OrderStatusUpdater is the slice of the repository the consumer needs.
type OrderStatusUpdater interface {
	MarkOrderProcessing(ctx context.Context, id uuid.UUID) error
}

// orderFinalizedEvent mirrors the outbox payload written at finalization.
type orderFinalizedEvent struct {
	OrderID  string `json:"order_id"`
	IntentID string `json:"intent_id"`
	UserID   int64  `json:"user_id"`
}

// Consumer picks up finalized orders from Kafka and moves them into
// fulfillment. Delivery is at-least-once; the status update is a no-op when
// the order already advanced past pending.
type Consumer struct {
	repo   OrderStatusUpdater
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(repo OrderStatusUpdater, log *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "fulfillment",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{repo, reader, log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.log.Error("error reading message", zap.Error(err))
		return
	}
	c.handle(ctx, m)
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	if eventType(m) != "order.finalized" {
		return
	}

	var event orderFinalizedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Error("error parsing message", zap.Error(err))
		return
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		c.log.Error("invalid order_id in event",
			zap.String("order_id", event.OrderID), zap.Error(err))
		return
	}

	if err := c.repo.MarkOrderProcessing(ctx, orderID); err != nil {
		c.log.Error("failed to move order into processing",
			zap.String("order_id", event.OrderID), zap.Error(err))
		return
	}

	c.log.Info("order moved into fulfillment",
		zap.String("order_id", event.OrderID),
		zap.Int64("user_id", event.UserID))
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
