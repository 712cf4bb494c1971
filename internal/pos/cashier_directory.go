package pos

import (
	"context"
	"errors"
	"fmt"

	"pos-coupon/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// allOutlets marks head-office accounts that are not bound to a single outlet.
const allOutlets = "SEMUA"

// cashierDirectory implements CashierDirectory over the head-office kasir table.
type cashierDirectory struct {
	pools      PoolProvider
	headOffice string
	logger     zerolog.Logger
}

// NewCashierDirectory creates a cashier directory reading from the headOffice outlet database.
func NewCashierDirectory(pools PoolProvider, headOffice string, logger zerolog.Logger) CashierDirectory {
	return &cashierDirectory{
		pools:      pools,
		headOffice: headOffice,
		logger:     logger.With().Str("repository", "kasir").Logger(),
	}
}

// FindByPasskey looks a cashier up by passkey. Accounts spanning all outlets cannot issue coupons
// and are not returned.
func (d *cashierDirectory) FindByPasskey(ctx context.Context, passkey string) (*model.Cashier, error) {
	pool, err := d.pools.Pool(ctx, d.headOffice)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT kode, COALESCE(nama, ''), outlet, COALESCE(is_active, FALSE)
		FROM kasir
		WHERE passkey = $1 AND outlet <> $2
		LIMIT 1
	`

	var c model.Cashier
	err = pool.QueryRow(ctx, query, passkey, allOutlets).Scan(&c.Kode, &c.Nama, &c.Outlet, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		d.logger.Error().Err(err).Msg("failed to get cashier by passkey")
		return nil, fmt.Errorf("failed to get cashier: %w", err)
	}

	return &c, nil
}
