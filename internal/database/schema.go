package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the coupon ledger DDL. Every statement is idempotent.
//
// coupon_issuances is the batch header: one row per (outlet, transaction_id),
// which is where the no-double-issue constraint lives since a batch spans
// several coupon rows. coupon_outlet_locks carries one row per outlet and is
// the target of the per-outlet allocation lock, including for outlets that
// have not issued anything yet. The running range check is re-applied on
// every start so ledgers created with an older bound pick it up.
const Schema = `
	CREATE TABLE IF NOT EXISTS coupons (
		id             BIGSERIAL PRIMARY KEY,
		coupon_number  TEXT NOT NULL UNIQUE,
		outlet         TEXT NOT NULL,
		running        INTEGER NOT NULL,
		transaction_id TEXT NOT NULL,
		kasir_id       TEXT NOT NULL,
		customer       TEXT NOT NULL DEFAULT '',
		address        TEXT NOT NULL DEFAULT '',
		phone          TEXT NOT NULL DEFAULT '',
		date           DATE NOT NULL,
		is_printed     BOOLEAN NOT NULL DEFAULT FALSE,
		printed_at     TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT coupons_outlet_running_key UNIQUE (outlet, running)
	);

	ALTER TABLE coupons DROP CONSTRAINT IF EXISTS coupons_running_check;
	ALTER TABLE coupons ADD CONSTRAINT coupons_running_check CHECK (running BETWEEN 1 AND 100000) NOT VALID;

	CREATE INDEX IF NOT EXISTS idx_coupons_outlet_transaction ON coupons(outlet, transaction_id);
	CREATE INDEX IF NOT EXISTS idx_coupons_outlet_kasir ON coupons(outlet, kasir_id);

	CREATE TABLE IF NOT EXISTS coupon_issuances (
		outlet         TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		kasir_id       TEXT NOT NULL,
		first_running  INTEGER NOT NULL,
		coupon_count   INTEGER NOT NULL CHECK (coupon_count >= 1),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT coupon_issuances_pkey PRIMARY KEY (outlet, transaction_id)
	);

	CREATE TABLE IF NOT EXISTS coupon_outlet_locks (
		outlet TEXT PRIMARY KEY
	);
`

// EnsureSchema creates the ledger tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply ledger schema: %w", err)
	}
	return nil
}
