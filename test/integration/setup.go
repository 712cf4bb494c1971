package integration

import (
	"context"
	"strconv"
	"testing"
	"time"

	"pos-coupon/internal/config"
	"pos-coupon/internal/database"
	"pos-coupon/internal/outlet"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testUser     = "testuser"
	testPassword = "testpass"
	testDatabase = "testdb"
)

// TestDB represents a test database instance. The same database serves as
// coupon ledger, outlet POS database and head-office database.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Host      string
	Port      int
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}

	mapped, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		t.Fatalf("failed to parse container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port,
		User:            testUser,
		Password:        testPassword,
		Database:        testDatabase,
		MaxConnections:  40,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Host:      host,
		Port:      port,
	}
}

// createSchema creates the ledger schema plus the outlet POS tables.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create ledger schema: %v", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS pos_transactions (
			id VARCHAR(50) PRIMARY KEY,
			kasir_id VARCHAR(50),
			date DATE NOT NULL,
			time TIME,
			amount NUMERIC(15, 2) NOT NULL,
			customer VARCHAR(255),
			address VARCHAR(255),
			phone VARCHAR(50)
		);

		CREATE TABLE IF NOT EXISTS kasir (
			kode VARCHAR(50) PRIMARY KEY,
			nama VARCHAR(255),
			outlet VARCHAR(50) NOT NULL,
			passkey VARCHAR(255) NOT NULL,
			is_active BOOLEAN
		);
	`

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("failed to create POS schema: %v", err)
	}
}

// NewRegistry returns an outlet registry whose outlets all point at the test database.
func (db *TestDB) NewRegistry(t *testing.T, codes ...string) *outlet.Registry {
	t.Helper()

	targets := make([]outlet.Target, len(codes))
	for i, code := range codes {
		targets[i] = outlet.Target{
			OutletCode: code,
			Host:       db.Host,
			Port:       db.Port,
			Database:   testDatabase,
			User:       testUser,
			Password:   testPassword,
		}
	}

	dir, err := outlet.NewDirectory(targets)
	if err != nil {
		t.Fatalf("failed to build outlet directory: %v", err)
	}

	registry := outlet.NewRegistry(dir, outlet.PoolConfig{MaxConnections: 5}, zerolog.Nop())
	t.Cleanup(registry.Close)
	return registry
}

// SeedTransaction inserts a POS transaction.
func SeedTransaction(t *testing.T, pool *pgxpool.Pool, id, kasirID string, date time.Time, amount float64) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO pos_transactions (id, kasir_id, date, time, amount, customer, address, phone)
		VALUES ($1, $2, $3, '10:00:00', $4, $5, $6, $7)
	`, id, kasirID, date.Format("2006-01-02"), amount, "Customer "+id, "Address "+id, "0812-"+id)
	if err != nil {
		t.Fatalf("failed to seed transaction %s: %v", id, err)
	}
}

// SeedCashiers inserts the head-office cashier accounts.
func SeedCashiers(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	cashiers := []struct {
		kode, nama, outlet, passkey string
		active                      bool
	}{
		{"K01", "Kasir Satu", "TKA", "pass-k01", true},
		{"K02", "Kasir Dua", "TKA", "pass-k02", false},
		{"K03", "Kasir Tiga", "TKB", "pass-k03", true},
		{"ADM", "Admin", "SEMUA", "pass-adm", true},
	}

	for _, c := range cashiers {
		_, err := pool.Exec(context.Background(),
			"INSERT INTO kasir (kode, nama, outlet, passkey, is_active) VALUES ($1, $2, $3, $4, $5)",
			c.kode, c.nama, c.outlet, c.passkey, c.active,
		)
		if err != nil {
			t.Fatalf("failed to seed cashier %s: %v", c.kode, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE coupons, coupon_issuances, coupon_outlet_locks, pos_transactions, kasir RESTART IDENTITY")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// CountCoupons returns the number of ledger rows of an outlet.
func CountCoupons(t *testing.T, pool *pgxpool.Pool, outletCode string) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM coupons WHERE outlet = $1", outletCode).Scan(&n); err != nil {
		t.Fatalf("failed to count coupons: %v", err)
	}
	return n
}

// Runnings returns the running numbers of an outlet in ascending order.
func Runnings(t *testing.T, pool *pgxpool.Pool, outletCode string) []int {
	t.Helper()

	rows, err := pool.Query(context.Background(),
		"SELECT running FROM coupons WHERE outlet = $1 ORDER BY running", outletCode)
	if err != nil {
		t.Fatalf("failed to query runnings: %v", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			t.Fatalf("failed to scan running: %v", err)
		}
		out = append(out, r)
	}
	return out
}
