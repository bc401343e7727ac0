// Package cache holds the Redis-backed partition index used to turn lookups
// by id alone into point reads.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ancillary-api/internal/config"
	"ancillary-api/internal/docstore"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to redis")
	return client, nil
}

// PartitionIndex remembers id -> partition key mappings in Redis.
type PartitionIndex struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewPartitionIndex creates an index whose keys live for ttl. Zero keeps keys forever.
func NewPartitionIndex(client redis.Cmdable, ttl time.Duration) *PartitionIndex {
	return &PartitionIndex{client: client, ttl: ttl}
}

func (p *PartitionIndex) Lookup(ctx context.Context, collection, id string) (string, bool, error) {
	pk, err := p.client.Get(ctx, partitionKey(collection, id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return pk, true, nil
}

func (p *PartitionIndex) Remember(ctx context.Context, collection, id, pk string) error {
	return p.client.Set(ctx, partitionKey(collection, id), pk, p.ttl).Err()
}

func (p *PartitionIndex) Forget(ctx context.Context, collection, id string) error {
	return p.client.Del(ctx, partitionKey(collection, id)).Err()
}

func partitionKey(collection, id string) string {
	return fmt.Sprintf("pk:%s:%s", collection, id)
}

var _ docstore.PartitionIndex = (*PartitionIndex)(nil)
