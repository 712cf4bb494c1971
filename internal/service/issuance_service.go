package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"pos-coupon/internal/model"
	"pos-coupon/internal/pos"
	"pos-coupon/internal/repository"

	"github.com/rs/zerolog"
)

// DefaultAmountPerCoupon is the net transaction value that earns one coupon.
const DefaultAmountPerCoupon = 1_000_000

// issuanceService implements IssuanceService.
type issuanceService struct {
	allocator       SequenceAllocator
	couponRepo      repository.CouponRepository
	transactions    pos.TransactionSource
	amountPerCoupon float64
	logger          zerolog.Logger
}

// NewIssuanceService creates a new issuance service.
func NewIssuanceService(
	allocator SequenceAllocator,
	couponRepo repository.CouponRepository,
	transactions pos.TransactionSource,
	amountPerCoupon float64,
	logger zerolog.Logger,
) IssuanceService {
	if amountPerCoupon <= 0 {
		amountPerCoupon = DefaultAmountPerCoupon
	}

	return &issuanceService{
		allocator:       allocator,
		couponRepo:      couponRepo,
		transactions:    transactions,
		amountPerCoupon: amountPerCoupon,
		logger:          logger.With().Str("service", "issuance").Logger(),
	}
}

// CouponCount returns how many coupons amount earns: one per whole unit.
func CouponCount(amount, unit float64) int {
	if amount <= 0 || unit <= 0 {
		return 0
	}
	return int(math.Floor(amount / unit))
}

// IssueForTransaction issues one coupon per whole amount unit of the transaction.
// Allocator errors are returned unchanged.
func (s *issuanceService) IssueForTransaction(ctx context.Context, outlet, kasirID string, trx model.Transaction) ([]string, error) {
	count := CouponCount(trx.Amount, s.amountPerCoupon)
	if count <= 0 {
		s.logger.Debug().
			Str("outlet", outlet).
			Str("transaction_id", trx.ID).
			Float64("amount", trx.Amount).
			Msg("transaction below coupon threshold")
		return nil, model.ErrNotEligible
	}

	return s.allocator.Allocate(ctx, AllocateRequest{
		Outlet:        outlet,
		TransactionID: trx.ID,
		KasirID:       kasirID,
		Count:         count,
		Snapshot:      trx.Snapshot(),
	})
}

// IssueByTransactionID looks the transaction up at the outlet and issues for it.
func (s *issuanceService) IssueByTransactionID(ctx context.Context, outlet, kasirID, transactionID string) ([]string, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	trx, err := s.transactions.FindByID(ctx, outlet, transactionID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("outlet", outlet).
			Str("transaction_id", transactionID).
			Msg("failed to look up transaction")
		return nil, err
	}

	if trx == nil {
		return nil, model.ErrTransactionNotFound
	}

	return s.IssueForTransaction(ctx, outlet, kasirID, *trx)
}

// ListIssued returns every coupon the cashier issued at the outlet.
func (s *issuanceService) ListIssued(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.FindByOutletAndKasir(ctx, outlet, kasirID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issued coupons: %w", err)
	}
	return coupons, nil
}

// ListEligible returns the cashier's qualifying transactions of day that have
// no coupons yet.
func (s *issuanceService) ListEligible(ctx context.Context, outlet, kasirID string, day time.Time) ([]model.Transaction, error) {
	issued, err := s.ListIssued(ctx, outlet, kasirID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(issued))
	exclude := make([]string, 0, len(issued))
	for _, c := range issued {
		if _, ok := seen[c.TransactionID]; ok {
			continue
		}
		seen[c.TransactionID] = struct{}{}
		exclude = append(exclude, c.TransactionID)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	trxs, err := s.transactions.ListEligible(ctx, pos.EligibleQuery{
		Outlet:    outlet,
		KasirID:   kasirID,
		From:      start,
		To:        end,
		MinAmount: s.amountPerCoupon,
		Exclude:   exclude,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("outlet", outlet).
			Str("kasir_id", kasirID).
			Msg("failed to list eligible transactions")
		return nil, err
	}

	s.logger.Debug().
		Str("outlet", outlet).
		Str("kasir_id", kasirID).
		Int("count", len(trxs)).
		Int("excluded", len(exclude)).
		Msg("listed eligible transactions")

	return trxs, nil
}

// MarkPrinted records physical printing of the cashier's coupons. Coupons of
// other cashiers or outlets and coupons already printed are left untouched.
func (s *issuanceService) MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error) {
	if len(couponNumbers) == 0 {
		return 0, fmt.Errorf("at least one coupon number is required")
	}

	updated, err := s.couponRepo.MarkPrinted(ctx, outlet, kasirID, couponNumbers)
	if err != nil {
		return 0, fmt.Errorf("failed to mark coupons printed: %w", err)
	}

	s.logger.Info().
		Str("outlet", outlet).
		Str("kasir_id", kasirID).
		Int("requested", len(couponNumbers)).
		Int64("updated", updated).
		Msg("coupons marked printed")

	return updated, nil
}
