package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-coupon/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	issuancePrimaryKey = "coupon_issuances_pkey"
)

const couponColumns = `
	id, coupon_number, outlet, running, transaction_id, kasir_id,
	customer, address, phone, date, is_printed, printed_at, created_at
`

// couponRepository implements CouponRepository using PostgreSQL.
type couponRepository struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	logger      zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon ledger.
func NewCouponRepository(pool *pgxpool.Pool, lockTimeout time.Duration, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:        pool,
		lockTimeout: lockTimeout,
		logger:      logger.With().Str("repository", "coupon").Logger(),
	}
}

// WithinTx runs fn inside a READ COMMITTED transaction. Mutual exclusion comes
// from the row locks fn takes, not from the isolation level.
func (r *couponRepository) WithinTx(ctx context.Context, fn func(tx CouponTx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if r.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
		if _, err = tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", timeout); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	if err = fn(&couponTx{tx: tx, logger: r.logger}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByTransaction returns the coupons issued for a transaction of an outlet.
func (r *couponRepository) FindByTransaction(ctx context.Context, outlet, transactionID string) ([]model.Coupon, error) {
	query := `SELECT` + couponColumns + `
		FROM coupons
		WHERE outlet = $1 AND transaction_id = $2
		ORDER BY running
	`

	coupons, err := r.queryCoupons(ctx, query, outlet, transactionID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("outlet", outlet).
			Str("transaction_id", transactionID).
			Msg("failed to query coupons by transaction")
		return nil, fmt.Errorf("failed to query coupons by transaction: %w", err)
	}

	return coupons, nil
}

// FindByOutletAndKasir returns every coupon a cashier issued at an outlet.
func (r *couponRepository) FindByOutletAndKasir(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error) {
	query := `SELECT` + couponColumns + `
		FROM coupons
		WHERE outlet = $1 AND kasir_id = $2
		ORDER BY running
	`

	coupons, err := r.queryCoupons(ctx, query, outlet, kasirID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("outlet", outlet).
			Str("kasir_id", kasirID).
			Msg("failed to query coupons by cashier")
		return nil, fmt.Errorf("failed to query coupons by cashier: %w", err)
	}

	return coupons, nil
}

// MarkPrinted flips unprinted coupons of the cashier to printed.
func (r *couponRepository) MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error) {
	if len(couponNumbers) == 0 {
		return 0, nil
	}

	query := `
		UPDATE coupons
		SET is_printed = TRUE, printed_at = NOW()
		WHERE outlet = $1 AND kasir_id = $2 AND coupon_number = ANY($3) AND is_printed = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, outlet, kasirID, couponNumbers)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("outlet", outlet).
			Int("coupon_count", len(couponNumbers)).
			Msg("failed to mark coupons printed")
		return 0, fmt.Errorf("failed to mark coupons printed: %w", err)
	}

	r.logger.Debug().
		Str("outlet", outlet).
		Int64("updated", tag.RowsAffected()).
		Msg("coupons marked printed")

	return tag.RowsAffected(), nil
}

func (r *couponRepository) queryCoupons(ctx context.Context, query string, args ...any) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := make([]model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupon rows: %w", err)
	}

	return coupons, nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.CouponNumber,
		&c.Outlet,
		&c.Running,
		&c.TransactionID,
		&c.KasirID,
		&c.Customer,
		&c.Address,
		&c.Phone,
		&c.Date,
		&c.IsPrinted,
		&c.PrintedAt,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// couponTx implements CouponTx on an open pgx transaction.
type couponTx struct {
	tx     pgx.Tx
	logger zerolog.Logger
}

// LockTransaction locks the batch header of the transaction, if any. Header
// and coupon rows are written together, so a header means issued coupons.
func (t *couponTx) LockTransaction(ctx context.Context, outlet, transactionID string) (bool, error) {
	query := `
		SELECT coupon_count
		FROM coupon_issuances
		WHERE outlet = $1 AND transaction_id = $2
		FOR UPDATE
	`

	var count int
	err := t.tx.QueryRow(ctx, query, outlet, transactionID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock transaction rows: %w", err)
	}

	return true, nil
}

// LockOutlet creates the outlet's lock row on first use and locks it.
func (t *couponTx) LockOutlet(ctx context.Context, outlet string) error {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO coupon_outlet_locks (outlet) VALUES ($1) ON CONFLICT (outlet) DO NOTHING`,
		outlet,
	); err != nil {
		return fmt.Errorf("failed to create outlet lock row: %w", err)
	}

	var locked string
	err := t.tx.QueryRow(ctx,
		`SELECT outlet FROM coupon_outlet_locks WHERE outlet = $1 FOR UPDATE`,
		outlet,
	).Scan(&locked)
	if err != nil {
		return fmt.Errorf("failed to lock outlet: %w", err)
	}

	return nil
}

// LastAllocated returns the locked tail row of the outlet's sequence.
func (t *couponTx) LastAllocated(ctx context.Context, outlet string) (*model.Coupon, error) {
	query := `SELECT` + couponColumns + `
		FROM coupons
		WHERE outlet = $1
		ORDER BY running DESC
		LIMIT 1
		FOR UPDATE
	`

	c, err := scanCoupon(t.tx.QueryRow(ctx, query, outlet))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last allocated coupon: %w", err)
	}

	return c, nil
}

// InsertBatch writes the batch header and all coupon rows in one round trip.
func (t *couponTx) InsertBatch(ctx context.Context, header model.Issuance, rows []model.CouponInsert) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO coupon_issuances (outlet, transaction_id, kasir_id, first_running, coupon_count)
		VALUES ($1, $2, $3, $4, $5)
	`, header.Outlet, header.TransactionID, header.KasirID, header.FirstRunning, header.CouponCount)

	query := `
		INSERT INTO coupons
			(coupon_number, outlet, running, transaction_id, kasir_id, customer, address, phone, date, is_printed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
	`
	for _, row := range rows {
		batch.Queue(query,
			row.CouponNumber,
			row.Outlet,
			row.Running,
			row.TransactionID,
			row.KasirID,
			row.Snapshot.Customer,
			row.Snapshot.Address,
			row.Snapshot.Phone,
			row.Snapshot.Date,
		)
	}

	results := t.tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			if isUniqueViolation(err, issuancePrimaryKey) {
				return model.ErrDuplicateIssuance
			}
			t.logger.Error().
				Err(err).
				Str("outlet", header.Outlet).
				Str("transaction_id", header.TransactionID).
				Msg("failed to insert coupon batch")
			return fmt.Errorf("failed to insert coupon batch: %w", err)
		}
	}

	t.logger.Debug().
		Str("outlet", header.Outlet).
		Str("transaction_id", header.TransactionID).
		Int("count", len(rows)).
		Msg("coupon batch inserted")

	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
}

// IsRetryable reports whether err is a deadlock or serialization failure,
// after which the whole transaction can be replayed.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	default:
		return false
	}
}
