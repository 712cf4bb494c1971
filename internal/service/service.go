package service

import (
	"context"
	"time"

	"pos-coupon/internal/model"
)

// AllocateRequest carries the inputs of one allocation.
type AllocateRequest struct {
	Outlet        string
	TransactionID string
	KasirID       string
	Count         int
	Snapshot      model.Snapshot
}

// SequenceAllocator reserves and persists contiguous coupon numbers.
type SequenceAllocator interface {
	// Allocate persists Count consecutive coupons for the transaction and returns
	// their numbers in ascending order. Failures are model.ErrDuplicateIssuance,
	// model.ErrSequenceExhausted or model.ErrAllocationFailed; nothing is
	// persisted when an error is returned.
	Allocate(ctx context.Context, req AllocateRequest) ([]string, error)
}

// IssuanceService defines the coupon issuance use cases.
type IssuanceService interface {
	// IssueForTransaction issues one coupon per whole amount unit of the transaction.
	IssueForTransaction(ctx context.Context, outlet, kasirID string, trx model.Transaction) ([]string, error)

	// IssueByTransactionID looks the transaction up at the outlet and issues for it.
	IssueByTransactionID(ctx context.Context, outlet, kasirID, transactionID string) ([]string, error)

	// ListIssued returns every coupon the cashier issued at the outlet.
	ListIssued(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error)

	// ListEligible returns the cashier's qualifying transactions of the given
	// day that have not been issued coupons yet.
	ListEligible(ctx context.Context, outlet, kasirID string, day time.Time) ([]model.Transaction, error)

	// MarkPrinted records physical printing of the cashier's coupons.
	MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error)
}

// AuthService defines cashier sign-in.
type AuthService interface {
	// SignIn resolves a passkey to an active cashier and returns a sealed
	// session token with the session it encodes.
	SignIn(ctx context.Context, passkey string) (string, *model.Session, error)
}
