package database

import (
	"context"
	"fmt"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/config"
	"ancillary-api/internal/docstore"
	ddbstore "ancillary-api/internal/docstore/dynamodb"
	pgstore "ancillary-api/internal/docstore/postgres"

	"github.com/rs/zerolog"
)

// OpenStore connects the configured document store backend. With
// Store.AutoMigrate set it also creates the tables for collections.
func OpenStore(ctx context.Context, cfg *config.Config, clk clock.Clock, collections []string, logger zerolog.Logger) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory document store, data is lost on restart")
		return docstore.NewMemoryStore(clk), nil

	case config.BackendPostgres:
		pool, err := NewPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		store := pgstore.New(pool, clk, logger)
		if cfg.Store.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil

	case config.BackendDynamoDB:
		client, err := NewDynamoDBClient(ctx, cfg.DynamoDB, logger)
		if err != nil {
			return nil, err
		}
		store := ddbstore.New(client, ddbstore.Options{TablePrefix: cfg.DynamoDB.TablePrefix, Clock: clk}, logger)
		if err := store.Ping(ctx); err != nil {
			return nil, err
		}
		logger.Info().
			Str("backend", config.BackendDynamoDB).
			Str("region", cfg.DynamoDB.Region).
			Msg("document store reachable")
		if cfg.Store.AutoMigrate {
			if err := store.EnsureTables(ctx, cfg.DynamoDB.EnableTTL, collections...); err != nil {
				return nil, err
			}
		}
		return store, nil
	}

	return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
}
