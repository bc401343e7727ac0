package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ancillary-api/internal/config"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to a Kafka topic keyed by order id, so
// events for one order stay in one partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher for cfg.Topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, cfg.Topic, logger)
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.With().Str("component", "events").Str("topic", topic).Logger(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}

	p.logger.Debug().
		Str("type", event.Type).
		Str("order_id", event.OrderID).
		Msg("published order event")

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
