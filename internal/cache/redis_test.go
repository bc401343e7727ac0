package cache

import (
	"context"
	"testing"
	"time"

	"ancillary-api/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *PartitionIndex {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, config.RedisConfig{Addr: addr}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewPartitionIndex(client, time.Minute)
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, "pk:offers:o1", partitionKey("offers", "o1"))
	assert.NotEqual(t, partitionKey("offers", "x"), partitionKey("orders", "x"))
}

func TestPartitionIndex_Integration(t *testing.T) {
	index := setupRedis(t)
	ctx := context.Background()

	_, ok, err := index.Lookup(ctx, "offers", "o1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, index.Remember(ctx, "offers", "o1", "FL1"))

	pk, ok, err := index.Lookup(ctx, "offers", "o1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FL1", pk)

	_, ok, err = index.Lookup(ctx, "orders", "o1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, index.Forget(ctx, "offers", "o1"))
	_, ok, err = index.Lookup(ctx, "offers", "o1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
	assert.Nil(t, client)
}
