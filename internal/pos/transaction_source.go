package pos

import (
	"context"
	"errors"
	"fmt"

	"pos-coupon/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

const transactionColumns = `
	id, COALESCE(kasir_id, ''), date, COALESCE(time::text, ''), amount::float8,
	COALESCE(customer, ''), COALESCE(address, ''), COALESCE(phone, '')
`

// transactionSource implements TransactionSource over the outlet pos_transactions view.
type transactionSource struct {
	pools  PoolProvider
	logger zerolog.Logger
}

// NewTransactionSource creates a new outlet transaction reader.
func NewTransactionSource(pools PoolProvider, logger zerolog.Logger) TransactionSource {
	return &transactionSource{
		pools:  pools,
		logger: logger.With().Str("repository", "pos_transaction").Logger(),
	}
}

// FindByID returns a single transaction of the outlet.
func (s *transactionSource) FindByID(ctx context.Context, outlet, transactionID string) (*model.Transaction, error) {
	pool, err := s.pools.Pool(ctx, outlet)
	if err != nil {
		return nil, err
	}

	query := `SELECT` + transactionColumns + `
		FROM pos_transactions
		WHERE id = $1
	`

	trx, err := scanTransaction(pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error().
			Err(err).
			Str("outlet", outlet).
			Str("transaction_id", transactionID).
			Msg("failed to get transaction")
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return trx, nil
}

// ListEligible returns the cashier's transactions in [From, To] whose amount
// reaches MinAmount, skipping the ids in Exclude.
func (s *transactionSource) ListEligible(ctx context.Context, q EligibleQuery) ([]model.Transaction, error) {
	pool, err := s.pools.Pool(ctx, q.Outlet)
	if err != nil {
		return nil, err
	}

	exclude := q.Exclude
	if exclude == nil {
		exclude = []string{}
	}

	query := `SELECT` + transactionColumns + `
		FROM pos_transactions
		WHERE kasir_id = $1
		  AND date BETWEEN $2::date AND $3::date
		  AND amount >= $4
		  AND NOT (id = ANY($5))
		ORDER BY date DESC, time DESC, id
	`

	rows, err := pool.Query(ctx, query,
		q.KasirID, q.From.Format(dateLayout), q.To.Format(dateLayout), q.MinAmount, exclude)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("outlet", q.Outlet).
			Str("kasir_id", q.KasirID).
			Msg("failed to query eligible transactions")
		return nil, fmt.Errorf("failed to query eligible transactions: %w", err)
	}
	defer rows.Close()

	trxs := make([]model.Transaction, 0)
	for rows.Next() {
		trx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		trxs = append(trxs, *trx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return trxs, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var trx model.Transaction
	err := row.Scan(
		&trx.ID,
		&trx.KasirID,
		&trx.Date,
		&trx.Time,
		&trx.Amount,
		&trx.Customer,
		&trx.Address,
		&trx.Phone,
	)
	if err != nil {
		return nil, err
	}
	return &trx, nil
}
