package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/eshop/pkg/config"
	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated = "order.created"
	OrderDeleted = "order.deleted"
)

// OrderEvent describes a change in an order's lifecycle.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status,omitempty"`
	TotalPrice float64   `json:"total_price"`
	Items      int       `json:"items"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// New returns a Kafka publisher, or a no-op publisher when no brokers are
// configured.
func New(cfg config.KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg)
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish writes the event keyed by order id so that events of one order
// stay on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  event.OccurredAt,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
