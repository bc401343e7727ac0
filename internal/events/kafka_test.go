package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ancillary-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func sampleOrder() *model.Order {
	return &model.Order{
		ID:                 "r1",
		CustomerID:         "C1",
		FlightID:           "FL1",
		OfferID:            "o1",
		Status:             model.OrderStatusConfirmed,
		TotalAmount:        decimal.RequireFromString("99.98"),
		Currency:           "USD",
		ConfirmationNumber: "AA202603041234",
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &recordingWriter{}
	publisher := newKafkaPublisher(writer, "orders", zerolog.Nop())
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	err := publisher.Publish(context.Background(), NewOrderEvent(OrderConfirmed, sampleOrder(), at))
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, []byte("r1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, []byte(OrderConfirmed), msg.Headers[0].Value)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, OrderConfirmed, payload["type"])
	assert.Equal(t, "r1", payload["orderId"])
	assert.Equal(t, "C1", payload["customerId"])
	assert.Equal(t, "Confirmed", payload["status"])
	assert.Equal(t, "99.98", payload["totalAmount"])
	assert.Equal(t, "AA202603041234", payload["confirmationNumber"])
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	publisher := newKafkaPublisher(writer, "orders", zerolog.Nop())

	err := publisher.Publish(context.Background(), NewOrderEvent(OrderCreated, sampleOrder(), time.Now()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write event to kafka")
}

func TestKafkaPublisher_Close(t *testing.T) {
	writer := &recordingWriter{}
	publisher := newKafkaPublisher(writer, "orders", zerolog.Nop())

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestNewOrderEvent_OmitsEmptyConfirmation(t *testing.T) {
	order := sampleOrder()
	order.ConfirmationNumber = ""

	data, err := json.Marshal(NewOrderEvent(OrderCreated, order, time.Now()))
	require.NoError(t, err)

	assert.NotContains(t, string(data), "confirmationNumber")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), OrderEvent{}))
	assert.NoError(t, p.Close())
}
