// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"ancillary-api/internal/model"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	OrderCreated       = "order.created"
	OrderConfirmed     = "order.confirmed"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload written for every order transition.
type OrderEvent struct {
	Type               string            `json:"type"`
	OrderID            string            `json:"orderId"`
	CustomerID         string            `json:"customerId"`
	FlightID           string            `json:"flightId"`
	OfferID            string            `json:"offerId"`
	Status             model.OrderStatus `json:"status"`
	TotalAmount        decimal.Decimal   `json:"totalAmount"`
	Currency           string            `json:"currency"`
	ConfirmationNumber string            `json:"confirmationNumber,omitempty"`
	OccurredAt         time.Time         `json:"occurredAt"`
}

// NewOrderEvent snapshots order for an event of the given type.
func NewOrderEvent(eventType string, order *model.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:               eventType,
		OrderID:            order.ID,
		CustomerID:         order.CustomerID,
		FlightID:           order.FlightID,
		OfferID:            order.OfferID,
		Status:             order.Status,
		TotalAmount:        order.TotalAmount,
		Currency:           order.Currency,
		ConfirmationNumber: order.ConfirmationNumber,
		OccurredAt:         at,
	}
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
