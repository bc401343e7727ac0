package handler

import (
	"net/url"
	"strings"
	"time"

	"ancillary-api/internal/model"

	"github.com/shopspring/decimal"
)

// queryParser accumulates the first malformed search parameter.
type queryParser struct {
	values url.Values
	err    error
}

func (p *queryParser) str(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

func (p *queryParser) decimal(key string) *decimal.Decimal {
	raw := p.str(key)
	if raw == "" || p.err != nil {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.err = model.NewValidationError(model.ErrCodeInvalidCriteria, "%s must be a decimal number", key)
		return nil
	}
	return &d
}

func (p *queryParser) time(key string) *time.Time {
	raw := p.str(key)
	if raw == "" || p.err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		p.err = model.NewValidationError(model.ErrCodeInvalidCriteria, "%s must be an RFC 3339 timestamp", key)
		return nil
	}
	return &t
}

// sort returns the sort field and direction. Direction defaults to descending.
func (p *queryParser) sort() (string, bool) {
	field := p.str("sortBy")
	switch strings.ToLower(p.str("sortOrder")) {
	case "", "desc":
		return field, true
	case "asc":
		return field, false
	}
	if p.err == nil {
		p.err = model.NewValidationError(model.ErrCodeInvalidCriteria, "sortOrder must be asc or desc")
	}
	return field, true
}

func parseOfferCriteria(values url.Values) (model.OfferSearchCriteria, error) {
	p := &queryParser{values: values}

	c := model.DefaultOfferSearchCriteria()
	c.FlightID = p.str("flightId")
	c.OfferType = p.str("offerType")
	c.MinPrice = p.decimal("minPrice")
	c.MaxPrice = p.decimal("maxPrice")
	c.CreatedAfter = p.time("createdAfter")
	c.CreatedBefore = p.time("createdBefore")
	if field, desc := p.sort(); field != "" {
		c.SortBy, c.SortDescending = field, desc
	}

	if status := p.str("status"); status != "" {
		c.Status = model.OfferStatus(status)
		if !c.Status.Valid() && p.err == nil {
			p.err = model.NewValidationError(model.ErrCodeInvalidStatus, "Unknown offer status: %s", status)
		}
	}

	return c, p.err
}

func parseOrderCriteria(values url.Values) (model.OrderSearchCriteria, error) {
	p := &queryParser{values: values}

	c := model.DefaultOrderSearchCriteria()
	c.CustomerID = p.str("customerId")
	c.FlightID = p.str("flightId")
	c.OfferID = p.str("offerId")
	c.MinAmount = p.decimal("minAmount")
	c.MaxAmount = p.decimal("maxAmount")
	c.CreatedAfter = p.time("createdAfter")
	c.CreatedBefore = p.time("createdBefore")
	if field, desc := p.sort(); field != "" {
		c.SortBy, c.SortDescending = field, desc
	}

	if status := p.str("status"); status != "" {
		c.Status = model.OrderStatus(status)
		if !c.Status.Valid() && p.err == nil {
			p.err = model.NewValidationError(model.ErrCodeInvalidStatus, "Unknown order status: %s", status)
		}
	}

	return c, p.err
}
