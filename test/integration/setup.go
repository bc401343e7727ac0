package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ancillary-api/internal/clock"
	"ancillary-api/internal/docstore"
	pgstore "ancillary-api/internal/docstore/postgres"
	"ancillary-api/internal/events"
	"ancillary-api/internal/handler"
	"ancillary-api/internal/idgen"
	"ancillary-api/internal/repository"
	"ancillary-api/internal/router"
	"ancillary-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testAPIKey = "test-api-key"

// Backend opens a fresh document store driven by clk.
type Backend struct {
	Name string
	Open func(t *testing.T, clk clock.Clock) docstore.Store
}

// Backends returns the stores the API suite runs against. The PostgreSQL
// backend needs Docker and is skipped under -short.
func Backends(t *testing.T) []Backend {
	t.Helper()

	backends := []Backend{{
		Name: "memory",
		Open: func(t *testing.T, clk clock.Clock) docstore.Store {
			return docstore.NewMemoryStore(clk)
		},
	}}

	if !testing.Short() {
		pool := SetupTestDB(t)
		backends = append(backends, Backend{
			Name: "postgres",
			Open: func(t *testing.T, clk clock.Clock) docstore.Store {
				CleanupDB(t, pool)
				return pgstore.New(pool, clk, zerolog.Nop())
			},
		})
	}

	return backends
}

// SetupTestDB starts a PostgreSQL container and migrates the document schema.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := pgstore.New(pool, nil, zerolog.Nop()).Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return pool
}

// CleanupDB removes every stored document.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "DELETE FROM documents"); err != nil {
		t.Fatalf("failed to clean documents: %v", err)
	}
}

// TestServer is the full HTTP stack over one store.
type TestServer struct {
	Handler http.Handler
	Clock   *clock.Manual
	Store   docstore.Store
}

// SetupTestServer wires repositories, services, handlers and the router the
// way cmd/api does, with a manual clock and seeded ids.
func SetupTestServer(t *testing.T, backend Backend) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	clk := clock.NewManual(time.Now().UTC().Truncate(time.Second))
	ids := idgen.NewSeeded(7)
	store := backend.Open(t, clk)

	offerRepo := repository.NewOfferRepository(store, nil, clk, ids, logger)
	orderRepo := repository.NewOrderRepository(store, nil, clk, ids, logger)

	offerService := service.NewOfferService(offerRepo, clk, logger)
	orderService := service.NewOrderService(orderRepo, offerRepo, events.NopPublisher{}, clk, ids, logger)

	h := router.New(
		handler.NewOfferHandler(offerService, logger),
		handler.NewOrderHandler(orderService, logger),
		handler.NewHealthHandler(store, logger),
		testAPIKey,
		logger,
	)

	return &TestServer{Handler: h, Clock: clk, Store: store}
}
