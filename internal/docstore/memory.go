package docstore

import (
	"context"
	"sync"
	"time"

	"ancillary-api/internal/clock"
)

type memKey struct {
	partitionKey string
	id           string
}

type memEntry struct {
	item      Item
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Items past their TTL are invisible to
// reads and treated as absent by writes.
type MemoryStore struct {
	mu          sync.RWMutex
	clock       clock.Clock
	collections map[string]map[memKey]memEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &MemoryStore{
		clock:       clk,
		collections: make(map[string]map[memKey]memEntry),
	}
}

func (s *MemoryStore) live(e memEntry) bool {
	return e.expiresAt.IsZero() || s.clock.Now().Before(e.expiresAt)
}

func (s *MemoryStore) lookup(collection string, key memKey) (memEntry, bool) {
	e, ok := s.collections[collection][key]
	if !ok || !s.live(e) {
		return memEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) put(collection string, item Item) Item {
	c, ok := s.collections[collection]
	if !ok {
		c = make(map[memKey]memEntry)
		s.collections[collection] = c
	}
	stored := cloneItem(item)
	entry := memEntry{item: stored}
	if item.TTL > 0 {
		entry.expiresAt = s.clock.Now().Add(item.TTL)
	}
	c[memKey{partitionKey: item.PartitionKey, id: item.ID}] = entry
	return cloneItem(stored)
}

func (s *MemoryStore) Get(ctx context.Context, collection, id, partitionKey string) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError("get", collection, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(collection, memKey{partitionKey: partitionKey, id: id})
	if !ok {
		return nil, nil
	}
	item := cloneItem(e.item)
	return &item, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, item Item) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError("create", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(collection, memKey{partitionKey: item.PartitionKey, id: item.ID}); ok {
		return nil, ErrConflict
	}
	item.Version = 1
	stored := s.put(collection, item)
	return &stored, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, item Item) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError("upsert", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev int64
	if e, ok := s.lookup(collection, memKey{partitionKey: item.PartitionKey, id: item.ID}); ok {
		prev = e.item.Version
	}
	item.Version = prev + 1
	stored := s.put(collection, item)
	return &stored, nil
}

func (s *MemoryStore) Replace(ctx context.Context, collection string, item Item, expectedVersion int64) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError("replace", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(collection, memKey{partitionKey: item.PartitionKey, id: item.ID})
	if !ok || e.item.Version != expectedVersion {
		return nil, ErrPreconditionFailed
	}
	item.Version = expectedVersion + 1
	stored := s.put(collection, item)
	return &stored, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id, partitionKey string) error {
	if err := ctx.Err(); err != nil {
		return WrapError("delete", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], memKey{partitionKey: partitionKey, id: id})
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapError("query", collection, err)
	}
	if err := q.Validate(); err != nil {
		return nil, WrapError("query", collection, err)
	}

	s.mu.RLock()
	candidates := make([]Item, 0, len(s.collections[collection]))
	for key, e := range s.collections[collection] {
		if q.PartitionKey != "" && key.partitionKey != q.PartitionKey {
			continue
		}
		if !s.live(e) {
			continue
		}
		candidates = append(candidates, cloneItem(e.item))
	}
	s.mu.RUnlock()

	items, err := Evaluate(candidates, q)
	if err != nil {
		return nil, WrapError("query", collection, err)
	}
	return items, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() {}

func cloneItem(item Item) Item {
	item.Body = append([]byte(nil), item.Body...)
	return item
}
