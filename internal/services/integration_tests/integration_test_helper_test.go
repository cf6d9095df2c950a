package integration_tests

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go-shop-api/internal/database"
	"go-shop-api/internal/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func ptrFloat64(f float64) *float64 { return &f }

var (
	testDB          *pgxpool.Pool
	testRedisClient *redis.Client
	migrateOnce     sync.Once
	migrateErr      error
)

// getTestClients connects to the database named by TEST_DATABASE_URL and, when TEST_REDIS_URL
// is set, to Redis. Tests are skipped without a database.
func getTestClients(t *testing.T) (*pgxpool.Pool, *redis.Client) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL environment variable not set")
	}

	migrateOnce.Do(func() { migrateErr = database.Migrate(dsn) })
	require.NoError(t, migrateErr, "running migrations")

	if testDB == nil {
		pool, err := pgxpool.New(context.Background(), dsn)
		require.NoError(t, err)
		testDB = pool
	}

	if testRedisClient == nil {
		if addr := os.Getenv("TEST_REDIS_URL"); addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Get().WithError(err).Warn("Failed to connect to test Redis; Redis-dependent tests will be skipped")
			} else {
				testRedisClient = rdb
			}
		}
	}
	return testDB, testRedisClient
}

// cleanupTables truncates the given tables for test isolation.
func cleanupTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool, tables ...string) {
	t.Helper()
	if len(tables) == 0 {
		return
	}
	_, err := pool.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE")
	require.NoError(t, err, "Failed to truncate %v", tables)
}

// cleanupRedis flushes the test Redis database. Use with caution!
func cleanupRedis(t *testing.T, client *redis.Client) {
	t.Helper()
	if client == nil {
		return
	}
	require.NoError(t, client.FlushDB(context.Background()).Err(), "Failed to flush test Redis database")
}

func seedStock(ctx context.Context, t *testing.T, pool *pgxpool.Pool, table string, shopID uuid.UUID, name string, qty int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO `+table+` (id, shop_id, name, quantity_on_hand) VALUES ($1, $2, $3, $4)`, id, shopID, name, qty)
	require.NoError(t, err)
	return id
}

func stockOf(ctx context.Context, t *testing.T, pool *pgxpool.Pool, table string, id uuid.UUID) int {
	t.Helper()
	var qty int
	require.NoError(t, pool.QueryRow(ctx, `SELECT quantity_on_hand FROM `+table+` WHERE id = $1`, id).Scan(&qty))
	return qty
}

// seedInvoice stores the 70.00 scenario: part 2 x 10 from stock, a labor-based service and its 50.00 labor row.
func seedInvoice(ctx context.Context, t *testing.T, pool *pgxpool.Pool, shopID uuid.UUID, version int) (invoiceID, partID, serviceID uuid.UUID) {
	t.Helper()
	invoiceID, partID, serviceID = uuid.New(), uuid.New(), uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO invoices (id, shop_id, job_id, tax_rate, version) VALUES ($1, $2, $3, 8, $4)`,
		invoiceID, shopID, uuid.New(), version)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO invoice_items (id, invoice_id, position, name, type, quantity, unit_price, inventory_item_id)
		VALUES ($1, $2, 1, 'Brake pads', 'part', 2, 10, $3)`, partID, invoiceID, uuid.New())
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO invoice_items (id, invoice_id, position, name, type, quantity, unit_price, pricing_type, labor_hours)
		VALUES ($1, $2, 2, 'Brake job', 'service', 1, 0, 'labor_based', 1)`, serviceID, invoiceID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO invoice_items (id, invoice_id, position, name, type, quantity, unit_price, linked_item_id)
		VALUES ($1, $2, 3, 'Labor', 'labor', 1, 50, $3)`, uuid.New(), invoiceID, serviceID)
	require.NoError(t, err)
	return invoiceID, partID, serviceID
}
