package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusConfirmed  OrderStatus = "Confirmed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusFailed     OrderStatus = "Failed"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the order has finished its lifecycle.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Settable reports whether s may be assigned through an explicit status
// update. Pending is only the initial state and Confirmed is owned by Confirm.
func (s OrderStatus) Settable() bool {
	return s.Valid() && s != OrderStatusPending && s != OrderStatusConfirmed
}

// PaymentStatus is the state of the payment attached to an order.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "Pending"
	PaymentStatusProcessing PaymentStatus = "Processing"
	PaymentStatusCompleted  PaymentStatus = "Completed"
	PaymentStatusFailed     PaymentStatus = "Failed"
	PaymentStatusRefunded   PaymentStatus = "Refunded"
)

// Order represents a customer order for airline ancillary services.
type Order struct {
	ID                 string          `json:"id"`
	CustomerID         string          `json:"customerId"`
	FlightID           string          `json:"flightId"`
	OfferID            string          `json:"offerId"`
	OrderItems         []OrderItem     `json:"orderItems"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Currency           string          `json:"currency"`
	Status             OrderStatus     `json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	ConfirmedAt        *time.Time      `json:"confirmedAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	ConfirmationNumber string          `json:"confirmationNumber"`
	CustomerInfo       CustomerInfo    `json:"customerInfo"`
	PaymentInfo        PaymentInfo     `json:"paymentInfo"`
	Notes              string          `json:"notes,omitempty"`

	version int64
}

// Confirm moves the order to Confirmed and records when and under which number.
func (o *Order) Confirm(now time.Time, confirmationNumber string) {
	o.Status = OrderStatusConfirmed
	o.ConfirmedAt = &now
	o.ConfirmationNumber = confirmationNumber
}

// CheckTransition rejects a status change out of a terminal state.
func (o *Order) CheckTransition(next OrderStatus) error {
	if o.Status.IsTerminal() {
		return NewInvalidStateError(ErrCodeInvalidTransition, "Order %s is %s and cannot move to %s", o.ID, o.Status, next)
	}
	return nil
}

// AppendNote adds reason to Notes, semicolon-separated.
func (o *Order) AppendNote(reason string) {
	if reason == "" {
		return
	}
	if o.Notes == "" {
		o.Notes = reason
		return
	}
	o.Notes = o.Notes + "; " + reason
}

// StampLifecycle sets UpdatedAt and, once only, CompletedAt or CancelledAt.
func (o *Order) StampLifecycle(now time.Time) {
	o.UpdatedAt = now
	if o.Status == OrderStatusCompleted && o.CompletedAt == nil {
		o.CompletedAt = &now
	}
	if o.Status == OrderStatusCancelled && o.CancelledAt == nil {
		o.CancelledAt = &now
	}
}

// DocumentID implements docstore.Entity.
func (o *Order) DocumentID() string { return o.ID }

// PartitionKey implements docstore.Entity.
func (o *Order) PartitionKey() string { return o.CustomerID }

// Version returns the store version the order was read at.
func (o *Order) Version() int64 { return o.version }

// SetVersion implements docstore.Entity.
func (o *Order) SetVersion(v int64) { o.version = v }

// StoreTTL is zero: orders are kept indefinitely.
func (o *Order) StoreTTL() time.Duration { return 0 }

// SumItems returns the total of all item totals.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID        string          `json:"id"`
	OfferID   string          `json:"offerId"`
	OfferType string          `json:"offerType"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// TotalPrice is UnitPrice multiplied by Quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type orderItemJSON struct {
	ID         string          `json:"id"`
	OfferID    string          `json:"offerId"`
	OfferType  string          `json:"offerType"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// MarshalJSON emits the derived totalPrice alongside the stored fields.
func (i OrderItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderItemJSON{
		ID:         i.ID,
		OfferID:    i.OfferID,
		OfferType:  i.OfferType,
		Quantity:   i.Quantity,
		UnitPrice:  i.UnitPrice,
		TotalPrice: i.TotalPrice(),
	})
}

// CustomerInfo holds the customer's contact details.
type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// PaymentInfo holds payment details for an order.
type PaymentInfo struct {
	PaymentMethod string        `json:"paymentMethod"`
	TransactionID string        `json:"transactionId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	CustomerID   string             `json:"customerId"`
	OfferID      string             `json:"offerId"`
	OrderItems   []OrderItemRequest `json:"orderItems"`
	CustomerInfo CustomerInfo       `json:"customerInfo"`
	PaymentInfo  PaymentInfo        `json:"paymentInfo"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderStatusUpdate is the payload for an explicit status change.
type OrderStatusUpdate struct {
	CustomerID string      `json:"customerId"`
	Status     OrderStatus `json:"status"`
	Reason     string      `json:"reason"`
}

// OrderSearchCriteria filters orders; zero-valued fields are ignored.
type OrderSearchCriteria struct {
	CustomerID     string
	FlightID       string
	OfferID        string
	Status         OrderStatus
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	SortBy         string
	SortDescending bool
}

// DefaultOrderSearchCriteria sorts by createdAt, newest first.
func DefaultOrderSearchCriteria() OrderSearchCriteria {
	return OrderSearchCriteria{
		SortBy:         "createdAt",
		SortDescending: true,
	}
}
