package database

import (
	"context"
	"fmt"
	"time"

	"pos-coupon/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ApplicationName identifies ledger sessions in pg_stat_activity.
const ApplicationName = "pos-coupon"

// PoolConfig translates the ledger settings into a pgxpool configuration.
// Sessions default to READ COMMITTED regardless of the server setting.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	params := poolConfig.ConnConfig.RuntimeParams
	params["application_name"] = ApplicationName
	params["default_transaction_isolation"] = "read committed"

	return poolConfig, nil
}

// NewPool opens the coupon ledger pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.With().
		Str("component", "ledger-pool").
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger()

	log.Info().
		Int32("max_connections", poolConfig.MaxConns).
		Int32("min_connections", poolConfig.MinConns).
		Dur("max_conn_lifetime", poolConfig.MaxConnLifetime).
		Msg("opening ledger connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error().Err(err).Msg("ledger database unreachable")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("ledger connection pool ready")

	return pool, nil
}
