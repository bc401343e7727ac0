package repository

import (
	"ancillary-api/internal/docstore"
	"ancillary-api/internal/model"
)

// DefaultSortField is used when criteria name no sort field.
const DefaultSortField = "createdAt"

// OfferSortFields lists the offer fields search results may be ordered by.
var OfferSortFields = map[string]docstore.SortKind{
	"createdAt":  docstore.SortTime,
	"validUntil": docstore.SortTime,
	"price":      docstore.SortNumber,
	"title":      docstore.SortText,
	"offerType":  docstore.SortText,
	"status":     docstore.SortText,
}

// OrderSortFields lists the order fields search results may be ordered by.
var OrderSortFields = map[string]docstore.SortKind{
	"createdAt":   docstore.SortTime,
	"updatedAt":   docstore.SortTime,
	"confirmedAt": docstore.SortTime,
	"totalAmount": docstore.SortNumber,
	"status":      docstore.SortText,
}

func sortFor(allowed map[string]docstore.SortKind, field string, descending bool) (*docstore.Sort, error) {
	if field == "" {
		return &docstore.Sort{Field: DefaultSortField, Kind: docstore.SortTime, Descending: true}, nil
	}
	kind, ok := allowed[field]
	if !ok {
		return nil, model.NewValidationError(model.ErrCodeInvalidCriteria, "Unsupported sort field: %s", field)
	}
	return &docstore.Sort{Field: field, Kind: kind, Descending: descending}, nil
}

// offerSearchQuery translates criteria into a conjunctive query. Bounds are inclusive.
func offerSearchQuery(c model.OfferSearchCriteria) (docstore.Query, error) {
	sort, err := sortFor(OfferSortFields, c.SortBy, c.SortDescending)
	if err != nil {
		return docstore.Query{}, err
	}

	q := docstore.Query{PartitionKey: c.FlightID, Sort: sort}
	if c.OfferType != "" {
		q.Predicates = append(q.Predicates, docstore.Eq("offerType", c.OfferType))
	}
	if c.Status != "" {
		q.Predicates = append(q.Predicates, docstore.Eq("status", string(c.Status)))
	}
	if c.MinPrice != nil {
		q.Predicates = append(q.Predicates, docstore.Ge("price", *c.MinPrice))
	}
	if c.MaxPrice != nil {
		q.Predicates = append(q.Predicates, docstore.Le("price", *c.MaxPrice))
	}
	if c.CreatedAfter != nil {
		q.Predicates = append(q.Predicates, docstore.Ge("createdAt", *c.CreatedAfter))
	}
	if c.CreatedBefore != nil {
		q.Predicates = append(q.Predicates, docstore.Le("createdAt", *c.CreatedBefore))
	}
	return q, nil
}

// orderSearchQuery translates criteria into a conjunctive query. Bounds are inclusive.
func orderSearchQuery(c model.OrderSearchCriteria) (docstore.Query, error) {
	sort, err := sortFor(OrderSortFields, c.SortBy, c.SortDescending)
	if err != nil {
		return docstore.Query{}, err
	}

	q := docstore.Query{PartitionKey: c.CustomerID, Sort: sort}
	if c.FlightID != "" {
		q.Predicates = append(q.Predicates, docstore.Eq("flightId", c.FlightID))
	}
	if c.OfferID != "" {
		q.Predicates = append(q.Predicates, docstore.Eq("offerId", c.OfferID))
	}
	if c.Status != "" {
		q.Predicates = append(q.Predicates, docstore.Eq("status", string(c.Status)))
	}
	if c.MinAmount != nil {
		q.Predicates = append(q.Predicates, docstore.Ge("totalAmount", *c.MinAmount))
	}
	if c.MaxAmount != nil {
		q.Predicates = append(q.Predicates, docstore.Le("totalAmount", *c.MaxAmount))
	}
	if c.CreatedAfter != nil {
		q.Predicates = append(q.Predicates, docstore.Ge("createdAt", *c.CreatedAfter))
	}
	if c.CreatedBefore != nil {
		q.Predicates = append(q.Predicates, docstore.Le("createdAt", *c.CreatedBefore))
	}
	return q, nil
}
