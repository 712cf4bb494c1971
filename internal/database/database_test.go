package database

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"pos-coupon/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupContainer(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	mapped, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:            host,
		Port:            port,
		User:            "postgres",
		Password:        "postgres",
		Database:        "testdb",
		MaxConnections:  5,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}
}

func TestNewPool(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	cfg := setupContainer(t)

	pool, err := NewPool(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, int32(5), pool.Config().MaxConns)
	assert.Equal(t, int32(1), pool.Config().MinConns)
	assert.Equal(t, 300*time.Second, pool.Config().MaxConnLifetime)
	assert.NoError(t, pool.Ping(ctx))

	t.Run("EnsureSchema is idempotent", func(t *testing.T) {
		require.NoError(t, EnsureSchema(ctx, pool))
		require.NoError(t, EnsureSchema(ctx, pool))

		for _, table := range []string{"coupons", "coupon_issuances", "coupon_outlet_locks"} {
			var exists bool
			err := pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, table)
		}
	})

	t.Run("running number must stay within range", func(t *testing.T) {
		for _, running := range []int{0, 100_001} {
			_, err := pool.Exec(ctx, `
				INSERT INTO coupons (coupon_number, outlet, running, transaction_id, kasir_id, date)
				VALUES ($1, 'TKA', $2, 'TRX-1', 'K01', CURRENT_DATE)
			`, fmt.Sprintf("TKA-%06d", running), running)
			assert.Error(t, err, "running %d", running)
		}
	})
}

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "ledger.internal",
		Port:            5433,
		User:            "coupon",
		Password:        "secret",
		Database:        "coupons",
		MaxConnections:  25,
		MinConnections:  5,
		MaxConnLifetime: 600,
	}

	poolConfig, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(25), poolConfig.MaxConns)
	assert.Equal(t, int32(5), poolConfig.MinConns)
	assert.Equal(t, 10*time.Minute, poolConfig.MaxConnLifetime)
	assert.Equal(t, "ledger.internal", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(5433), poolConfig.ConnConfig.Port)
	assert.Equal(t, ApplicationName, poolConfig.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "read committed", poolConfig.ConnConfig.RuntimeParams["default_transaction_isolation"])
}

func TestNewPool_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.DatabaseConfig{
		Host:            "127.0.0.1",
		Port:            1,
		User:            "postgres",
		Database:        "testdb",
		MaxConnections:  1,
		MinConnections:  1,
		MaxConnLifetime: 60,
	}

	pool, err := NewPool(ctx, cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to")
	assert.Nil(t, pool)
}
