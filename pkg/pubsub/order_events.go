package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	CustomerID  string    `json:"customer_id,omitempty"`
	Status      string    `json:"status"`
	Total       string    `json:"total,omitempty"`
	TotalItems  int       `json:"total_items,omitempty"`
	PickupAt    string    `json:"pickup_at,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// OrderPublisher sends OrderEvents to the orders topic.
type OrderPublisher struct {
	send func(ctx context.Context, msg *pubsub.Message) error
}

// NewOrderPublisher wraps a v2 publisher; Get blocks until the server acks.
func NewOrderPublisher(pub *pubsub.Publisher) (*OrderPublisher, error) {
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	return &OrderPublisher{
		send: func(ctx context.Context, msg *pubsub.Message) error {
			_, err := pub.Publish(ctx, msg).Get(ctx)
			return err
		},
	}, nil
}

// PublishOrderEvent encodes and publishes event. A nil publisher is a no-op.
func (p *OrderPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if p == nil || p.send == nil {
		return nil
	}
	msg, err := encodeOrderEvent(event)
	if err != nil {
		return err
	}
	if err := p.send(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func encodeOrderEvent(event OrderEvent) (*pubsub.Message, error) {
	if event.Type == "" {
		return nil, errors.New("event type is required")
	}
	if event.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode order event: %w", err)
	}
	return &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": event.Type,
			"order_id":   event.OrderID,
		},
	}, nil
}
