package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Entity is implemented by every type stored through a Collection.
type Entity interface {
	DocumentID() string
	PartitionKey() string
	Version() int64
	SetVersion(v int64)
	StoreTTL() time.Duration
}

// EntityPtr constrains P to be *T implementing Entity.
type EntityPtr[T any] interface {
	*T
	Entity
}

// Collection is a typed view over one collection of a Store.
type Collection[T any, P EntityPtr[T]] struct {
	store  Store
	name   string
	index  PartitionIndex
	logger zerolog.Logger
}

// NewCollection creates a typed collection. index may be nil.
func NewCollection[T any, P EntityPtr[T]](store Store, name string, index PartitionIndex, logger zerolog.Logger) *Collection[T, P] {
	return &Collection[T, P]{
		store:  store,
		name:   name,
		index:  index,
		logger: logger.With().Str("collection", name).Logger(),
	}
}

// Name returns the collection name.
func (c *Collection[T, P]) Name() string {
	return c.name
}

// Get returns the entity or nil when it does not exist.
func (c *Collection[T, P]) Get(ctx context.Context, id, partitionKey string) (*T, error) {
	item, err := c.store.Get(ctx, c.name, id, partitionKey)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return c.decode(*item)
}

// Exists reports whether the entity is stored.
func (c *Collection[T, P]) Exists(ctx context.Context, id, partitionKey string) (bool, error) {
	item, err := c.store.Get(ctx, c.name, id, partitionKey)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// Create inserts a new entity.
func (c *Collection[T, P]) Create(ctx context.Context, e P) (*T, error) {
	item, err := c.encode(e)
	if err != nil {
		return nil, err
	}
	stored, err := c.store.Create(ctx, c.name, item)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, item.ID, item.PartitionKey)
	return c.decode(*stored)
}

// Upsert writes the entity unconditionally.
func (c *Collection[T, P]) Upsert(ctx context.Context, e P) (*T, error) {
	item, err := c.encode(e)
	if err != nil {
		return nil, err
	}
	stored, err := c.store.Upsert(ctx, c.name, item)
	if err != nil {
		return nil, err
	}
	return c.decode(*stored)
}

// Replace writes the entity only if the stored version still equals
// e.Version(), returning ErrPreconditionFailed otherwise.
func (c *Collection[T, P]) Replace(ctx context.Context, e P) (*T, error) {
	item, err := c.encode(e)
	if err != nil {
		return nil, err
	}
	stored, err := c.store.Replace(ctx, c.name, item, e.Version())
	if err != nil {
		return nil, err
	}
	return c.decode(*stored)
}

// Delete removes the entity.
func (c *Collection[T, P]) Delete(ctx context.Context, id, partitionKey string) error {
	if err := c.store.Delete(ctx, c.name, id, partitionKey); err != nil {
		return err
	}
	if c.index != nil {
		if err := c.index.Forget(ctx, c.name, id); err != nil {
			c.logger.Warn().Err(err).Str("id", id).Msg("failed to forget partition key")
		}
	}
	return nil
}

// Query returns the entities matching q.
func (c *Collection[T, P]) Query(ctx context.Context, q Query) ([]T, error) {
	items, err := c.store.Query(ctx, c.name, q)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		t, err := c.decode(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// FindByID looks an entity up by id alone. A partition index hit turns the
// lookup into a point read; otherwise a cross-partition query is issued.
func (c *Collection[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	if c.index != nil {
		pk, ok, err := c.index.Lookup(ctx, c.name, id)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("id", id).Msg("partition index lookup failed")
		case ok:
			t, err := c.Get(ctx, id, pk)
			if err != nil {
				return nil, err
			}
			if t != nil {
				return t, nil
			}
		}
	}

	items, err := c.store.Query(ctx, c.name, Query{
		Predicates: []Predicate{Eq("id", id)},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	c.remember(ctx, items[0].ID, items[0].PartitionKey)
	return c.decode(items[0])
}

func (c *Collection[T, P]) remember(ctx context.Context, id, partitionKey string) {
	if c.index == nil {
		return
	}
	if err := c.index.Remember(ctx, c.name, id, partitionKey); err != nil {
		c.logger.Warn().Err(err).Str("id", id).Msg("failed to remember partition key")
	}
}

func (c *Collection[T, P]) encode(e P) (Item, error) {
	if e.DocumentID() == "" {
		return Item{}, fmt.Errorf("docstore: %s: document id is required", c.name)
	}
	if e.PartitionKey() == "" {
		return Item{}, fmt.Errorf("docstore: %s: partition key is required", c.name)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return Item{}, fmt.Errorf("docstore: %s: failed to encode document: %w", c.name, err)
	}

	return Item{
		ID:           e.DocumentID(),
		PartitionKey: e.PartitionKey(),
		Body:         body,
		Version:      e.Version(),
		TTL:          e.StoreTTL(),
	}, nil
}

func (c *Collection[T, P]) decode(item Item) (*T, error) {
	var t T
	if err := json.Unmarshal(item.Body, &t); err != nil {
		return nil, fmt.Errorf("docstore: %s: failed to decode document %s: %w", c.name, item.ID, err)
	}
	P(&t).SetVersion(item.Version)
	return &t, nil
}
