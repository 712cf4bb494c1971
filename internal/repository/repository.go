package repository

import (
	"context"

	"pos-coupon/internal/model"
)

// CouponRepository defines the coupon ledger operations.
type CouponRepository interface {
	// WithinTx runs fn inside one storage transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise; lock waits are
	// bounded by the configured lock timeout.
	WithinTx(ctx context.Context, fn func(tx CouponTx) error) error

	// FindByTransaction returns the coupons issued for a transaction of an outlet.
	// An empty result means the transaction has not been issued coupons.
	FindByTransaction(ctx context.Context, outlet, transactionID string) ([]model.Coupon, error)

	// FindByOutletAndKasir returns every coupon a cashier issued at an outlet.
	FindByOutletAndKasir(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error)

	// MarkPrinted flips unprinted coupons of the cashier to printed and returns
	// how many rows changed.
	MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error)
}

// CouponTx is the ledger surface available inside WithinTx. Every lock taken
// through it is held until the surrounding transaction ends.
type CouponTx interface {
	// LockTransaction locks the issuance of (outlet, transactionID) and
	// reports whether one exists.
	LockTransaction(ctx context.Context, outlet, transactionID string) (bool, error)

	// LockOutlet takes the exclusive per-outlet allocation lock.
	LockOutlet(ctx context.Context, outlet string) error

	// LastAllocated returns the ledger row with the highest running number of
	// the outlet, locked, or nil when the outlet has no coupons yet.
	LastAllocated(ctx context.Context, outlet string) (*model.Coupon, error)

	// InsertBatch writes the batch header and its coupon rows.
	// It returns model.ErrDuplicateIssuance if the header already exists.
	InsertBatch(ctx context.Context, header model.Issuance, rows []model.CouponInsert) error
}
