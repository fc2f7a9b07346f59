// Package events publishes storefront events for the back office.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"jewelry-storefront/internal/domain"
)

const TypeOrderRequested = "order.requested"

// OrderRequested is the payload sent when a customer submits an order.
type OrderRequested struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Order      domain.Order `json:"order"`
}

type Publisher interface {
	OrderRequested(ctx context.Context, order domain.Order) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events to a single topic, keyed by order id so every event
// of an order lands on the same partition.
type Kafka struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewKafka(brokers []string, topic string) *Kafka {
	return newKafka(NewKafkaWriter(brokers, topic))
}

func newKafka(w messageWriter) *Kafka {
	return &Kafka{writer: w, now: time.Now}
}

func (k *Kafka) OrderRequested(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(OrderRequested{
		Type:       TypeOrderRequested,
		OccurredAt: k.now().UTC(),
		Order:      order,
	})
	if err != nil {
		return fmt.Errorf("events: encode order %s: %w", order.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte("order-" + order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeOrderRequested)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish order %s: %w", order.ID, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) OrderRequested(context.Context, domain.Order) error { return nil }
func (Nop) Close() error                                       { return nil }
