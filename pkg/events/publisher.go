package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const EventNegotiationAccepted = "negotiation.accepted"

// AcceptedEvent tells downstream order processing that a price was agreed.
type AcceptedEvent struct {
	NegotiationID string          `json:"negotiation_id"`
	ProductID     string          `json:"product_id"`
	OrderID       string          `json:"order_id"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	AcceptedAt    time.Time       `json:"accepted_at"`
}

type Publisher interface {
	PublishAccepted(ctx context.Context, event AcceptedEvent) error
}

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) PublishAccepted(ctx context.Context, event AcceptedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.NegotiationID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventNegotiationAccepted)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishAccepted(context.Context, AcceptedEvent) error { return nil }
