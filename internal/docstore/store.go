// Package docstore is a small client abstraction over partitioned document
// collections. Backends store JSON bodies keyed by (partition key, id) and
// carry a monotonically increasing version tag used for conditional writes.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict is returned by Create when the id already exists in the partition.
	ErrConflict = errors.New("docstore: item already exists")

	// ErrPreconditionFailed is returned by Replace when the stored version differs.
	ErrPreconditionFailed = errors.New("docstore: version precondition failed")
)

// Error wraps a backend failure that is not one of the sentinel conditions.
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError classifies err as a backend failure unless it is a sentinel.
func WrapError(op, collection string, err error) error {
	if err == nil || errors.Is(err, ErrConflict) || errors.Is(err, ErrPreconditionFailed) {
		return err
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Op: op, Collection: collection, Err: err}
}

// Item is a raw stored document.
type Item struct {
	ID           string
	PartitionKey string
	Body         json.RawMessage
	Version      int64

	// TTL asks the backend to drop the item this long after the write.
	// Zero means the item never expires.
	TTL time.Duration
}

// Store is the backend contract every document database adapter implements.
type Store interface {
	// Get returns the item or nil when it does not exist.
	Get(ctx context.Context, collection, id, partitionKey string) (*Item, error)

	// Create inserts the item with version 1, failing with ErrConflict if it exists.
	Create(ctx context.Context, collection string, item Item) (*Item, error)

	// Upsert writes the item unconditionally and bumps the stored version.
	Upsert(ctx context.Context, collection string, item Item) (*Item, error)

	// Replace writes the item only if the stored version equals expectedVersion.
	Replace(ctx context.Context, collection string, item Item, expectedVersion int64) (*Item, error)

	// Delete removes the item. Deleting a missing item is not an error.
	Delete(ctx context.Context, collection, id, partitionKey string) error

	// Query returns the items matching every predicate.
	Query(ctx context.Context, collection string, q Query) ([]Item, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}

// PartitionIndex remembers which partition an id lives in so lookups by id
// alone can become point reads. Implementations are advisory caches.
type PartitionIndex interface {
	Lookup(ctx context.Context, collection, id string) (string, bool, error)
	Remember(ctx context.Context, collection, id, partitionKey string) error
	Forget(ctx context.Context, collection, id string) error
}
