package database

import (
	"context"
	"fmt"
	"time"

	"ancillary-api/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// poolHealthCheckPeriod is how often idle pooled connections are checked.
const poolHealthCheckPeriod = time.Minute

// NewPool opens the pgx pool behind the PostgreSQL document store and
// verifies it with a ping before handing it out.
func NewPool(ctx context.Context, cfg config.PostgresConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With().Str("backend", config.BackendPostgres).Logger()

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime()
	poolConfig.MaxConnIdleTime = cfg.ConnIdleTime()
	poolConfig.HealthCheckPeriod = poolHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	start := time.Now()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Str("sslmode", cfg.SSLMode).
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Dur("ping", time.Since(start)).
		Msg("document store pool ready")

	return pool, nil
}
