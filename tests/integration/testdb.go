// Package integration runs the repositories, locks and services against real
// PostgreSQL and Redis containers. Every test skips in -short mode.
package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/brandlive/storesync/internal/infrastructure/cache"
	"github.com/brandlive/storesync/internal/infrastructure/logger"
	"github.com/brandlive/storesync/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"
)

var (
	sharedPostgres    *tcpostgres.PostgresContainer
	sharedPostgresDSN string
	sharedPostgresMu  sync.Mutex
)

func requireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

func postgresDSN(t *testing.T) string {
	t.Helper()
	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()

	if sharedPostgres != nil {
		return sharedPostgresDSN
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storesync_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	sharedPostgres = container
	sharedPostgresDSN = dsn
	return dsn
}

// NewTestDB opens a migrated database on the shared container and truncates
// the service tables when the test ends.
func NewTestDB(t *testing.T) *persistence.Database {
	t.Helper()
	requireIntegration(t)

	var opts []persistence.DatabaseOption
	if os.Getenv("TEST_DB_DEBUG") != "" {
		opts = append(opts, persistence.WithGormLogger(logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Info)))
	}

	db, err := persistence.Open(gormpostgres.Open(postgresDSN(t)), opts...)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))

	t.Cleanup(func() {
		for _, table := range []string{"order_items", "orders", "sync_logs", "products", "stores"} {
			if err := db.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
				t.Logf("Warning: failed to truncate %s: %v", table, err)
			}
		}
		_ = db.Close()
	})
	return db
}

// NewTestRedisLocker starts a Redis container and returns a locker connected to it
func NewTestRedisLocker(t *testing.T) *cache.RedisLocker {
	t.Helper()
	requireIntegration(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate Redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	locker, err := cache.NewRedisLocker(cache.RedisConfig{Host: host, Port: port.Int()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = locker.Close() })
	return locker
}

// CleanupSharedContainer terminates the shared PostgreSQL container
func CleanupSharedContainer() {
	sharedPostgresMu.Lock()
	defer sharedPostgresMu.Unlock()

	if sharedPostgres != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedPostgres.Terminate(ctx)
		sharedPostgres = nil
		sharedPostgresDSN = ""
	}
}
