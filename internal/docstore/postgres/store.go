// Package postgres implements docstore.Store on a single PostgreSQL table
// holding JSONB bodies. Predicates and sorting are evaluated by the database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/docstore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store is a PostgreSQL-backed docstore.Store.
type Store struct {
	db     DB
	clock  clock.Clock
	logger zerolog.Logger
}

// New creates a store over db. clk may be nil.
func New(db DB, clk clock.Clock, logger zerolog.Logger) *Store {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Store{
		db:     db,
		clock:  clk,
		logger: logger.With().Str("component", "postgres").Logger(),
	}
}

// Migrate creates the documents table and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate document schema: %w", err)
	}
	s.logger.Info().Msg("document schema is up to date")
	return nil
}

func (s *Store) expiresAt(item docstore.Item) any {
	if item.TTL <= 0 {
		return nil
	}
	return s.clock.Now().Add(item.TTL)
}

func (s *Store) Get(ctx context.Context, collection, id, partitionKey string) (*docstore.Item, error) {
	item := docstore.Item{ID: id, PartitionKey: partitionKey}

	var body []byte
	err := s.db.QueryRow(ctx, getSQL, collection, partitionKey, id, s.clock.Now()).Scan(&body, &item.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, docstore.WrapError("get", collection, err)
	}

	item.Body = body
	return &item, nil
}

func (s *Store) Create(ctx context.Context, collection string, item docstore.Item) (*docstore.Item, error) {
	err := s.db.QueryRow(ctx, createSQL,
		collection, item.PartitionKey, item.ID, string(item.Body), s.expiresAt(item), s.clock.Now(),
	).Scan(&item.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.ErrConflict
		}
		return nil, docstore.WrapError("create", collection, err)
	}
	return &item, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, item docstore.Item) (*docstore.Item, error) {
	err := s.db.QueryRow(ctx, upsertSQL,
		collection, item.PartitionKey, item.ID, string(item.Body), s.expiresAt(item), s.clock.Now(),
	).Scan(&item.Version)
	if err != nil {
		return nil, docstore.WrapError("upsert", collection, err)
	}
	return &item, nil
}

func (s *Store) Replace(ctx context.Context, collection string, item docstore.Item, expectedVersion int64) (*docstore.Item, error) {
	err := s.db.QueryRow(ctx, replaceSQL,
		collection, item.PartitionKey, item.ID, string(item.Body), s.expiresAt(item), expectedVersion, s.clock.Now(),
	).Scan(&item.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.ErrPreconditionFailed
		}
		return nil, docstore.WrapError("replace", collection, err)
	}
	return &item, nil
}

func (s *Store) Delete(ctx context.Context, collection, id, partitionKey string) error {
	if _, err := s.db.Exec(ctx, deleteSQL, collection, partitionKey, id); err != nil {
		return docstore.WrapError("delete", collection, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Item, error) {
	if err := q.Validate(); err != nil {
		return nil, docstore.WrapError("query", collection, err)
	}

	sql, args, err := buildQuery(collection, q, s.clock.Now())
	if err != nil {
		return nil, docstore.WrapError("query", collection, err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, docstore.WrapError("query", collection, err)
	}
	defer rows.Close()

	var items []docstore.Item
	for rows.Next() {
		var (
			item docstore.Item
			body []byte
		)
		if err := rows.Scan(&item.PartitionKey, &item.ID, &body, &item.Version); err != nil {
			return nil, docstore.WrapError("query", collection, fmt.Errorf("failed to scan document: %w", err))
		}
		item.Body = body
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, docstore.WrapError("query", collection, err)
	}

	return items, nil
}

func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.Ping(pingCtx)
}

func (s *Store) Close() {
	s.db.Close()
}

var _ docstore.Store = (*Store)(nil)
