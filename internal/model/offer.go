package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferTTLSeconds is the lifetime of every offer.
const OfferTTLSeconds = 2400

// OfferTTL is OfferTTLSeconds as a duration.
const OfferTTL = OfferTTLSeconds * time.Second

// DefaultCurrency is used when a request omits the currency.
const DefaultCurrency = "USD"

// OfferStatus is the lifecycle state of an offer.
type OfferStatus string

const (
	OfferStatusActive    OfferStatus = "Active"
	OfferStatusExpired   OfferStatus = "Expired"
	OfferStatusUsed      OfferStatus = "Used"
	OfferStatusCancelled OfferStatus = "Cancelled"
)

// Valid reports whether s is a known offer status.
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusActive, OfferStatusExpired, OfferStatusUsed, OfferStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is expected.
func (s OfferStatus) IsTerminal() bool {
	return s == OfferStatusExpired || s == OfferStatusUsed || s == OfferStatusCancelled
}

// Offer represents an airline ancillary offer with a 40-minute lifetime.
type Offer struct {
	ID          string          `json:"id"`
	FlightID    string          `json:"flightId"`
	OfferType   string          `json:"offerType"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	ValidUntil  time.Time       `json:"validUntil"`
	Status      OfferStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	TTL         int             `json:"ttl"`
	Metadata    Metadata        `json:"metadata"`

	version int64
}

// StampTTL sets CreatedAt, TTL and ValidUntil from now.
func (o *Offer) StampTTL(now time.Time) {
	o.CreatedAt = now
	o.TTL = OfferTTLSeconds
	o.ValidUntil = now.Add(OfferTTL)
}

// IsExpired reports whether now is past ValidUntil.
func (o *Offer) IsExpired(now time.Time) bool {
	return now.After(o.ValidUntil)
}

// IsAvailable reports whether an order may be created against the offer.
func (o *Offer) IsAvailable(now time.Time) bool {
	return o.Status == OfferStatusActive && !o.IsExpired(now)
}

// DocumentID implements docstore.Entity.
func (o *Offer) DocumentID() string { return o.ID }

// PartitionKey implements docstore.Entity.
func (o *Offer) PartitionKey() string { return o.FlightID }

// Version returns the store version the offer was read at.
func (o *Offer) Version() int64 { return o.version }

// SetVersion implements docstore.Entity.
func (o *Offer) SetVersion(v int64) { o.version = v }

// StoreTTL asks the store to drop the item once the offer lifetime has passed.
func (o *Offer) StoreTTL() time.Duration {
	return time.Duration(o.TTL) * time.Second
}

// CreateOfferRequest represents the request payload for creating an offer.
type CreateOfferRequest struct {
	FlightID    string          `json:"flightId"`
	OfferType   string          `json:"offerType"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Metadata    Metadata        `json:"metadata"`
}

// OfferSearchCriteria filters offers; zero-valued fields are ignored.
type OfferSearchCriteria struct {
	FlightID       string
	OfferType      string
	Status         OfferStatus
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	SortBy         string
	SortDescending bool
}

// DefaultOfferSearchCriteria sorts by createdAt, newest first.
func DefaultOfferSearchCriteria() OfferSearchCriteria {
	return OfferSearchCriteria{
		SortBy:         "createdAt",
		SortDescending: true,
	}
}
