package pos

import (
	"context"
	"time"

	"pos-coupon/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolProvider resolves the database pool of an outlet.
type PoolProvider interface {
	Pool(ctx context.Context, outlet string) (*pgxpool.Pool, error)
}

// EligibleQuery selects a cashier's transactions that may still earn coupons.
type EligibleQuery struct {
	Outlet    string
	KasirID   string
	From      time.Time
	To        time.Time
	MinAmount float64
	Exclude   []string
}

// TransactionSource reads point-of-sale transactions from outlet databases.
type TransactionSource interface {
	// FindByID returns the transaction, or nil when the outlet has no such transaction.
	FindByID(ctx context.Context, outlet, transactionID string) (*model.Transaction, error)
	ListEligible(ctx context.Context, q EligibleQuery) ([]model.Transaction, error)
}

// CashierDirectory resolves cashiers from the head-office database.
type CashierDirectory interface {
	// FindByPasskey returns the cashier, or nil when no cashier has the passkey.
	FindByPasskey(ctx context.Context, passkey string) (*model.Cashier, error)
}
