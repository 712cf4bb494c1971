package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-coupon/internal/model"
	"pos-coupon/internal/repository"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
)

// AllocatorConfig holds the sequence rules of the allocator.
type AllocatorConfig struct {
	// MaxRunning is the last running number an outlet may issue. It can lower
	// model.MaxRunning but never raise it.
	MaxRunning int

	// RetryAttempts bounds how often a transaction aborted by a deadlock or
	// serialization failure is replayed. 1 disables replay.
	RetryAttempts int

	// RetryDelay is the base delay between replays.
	RetryDelay time.Duration
}

// DefaultAllocatorConfig returns the production sequence rules.
func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{
		MaxRunning:    model.MaxRunning,
		RetryAttempts: 3,
		RetryDelay:    50 * time.Millisecond,
	}
}

// sequenceAllocator implements SequenceAllocator on top of the ledger's
// transaction scope. It holds no locks of its own.
type sequenceAllocator struct {
	repo   repository.CouponRepository
	config AllocatorConfig
	logger zerolog.Logger
}

// NewSequenceAllocator creates a new sequence allocator.
func NewSequenceAllocator(repo repository.CouponRepository, config AllocatorConfig, logger zerolog.Logger) SequenceAllocator {
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	if config.MaxRunning < 1 || config.MaxRunning > model.MaxRunning {
		config.MaxRunning = model.MaxRunning
	}

	return &sequenceAllocator{
		repo:   repo,
		config: config,
		logger: logger.With().Str("service", "allocator").Logger(),
	}
}

// Allocate runs the allocation protocol in a single ledger transaction.
func (a *sequenceAllocator) Allocate(ctx context.Context, req AllocateRequest) ([]string, error) {
	if err := validateAllocateRequest(req); err != nil {
		return nil, err
	}

	log := a.logger.With().
		Str("outlet", req.Outlet).
		Str("transaction_id", req.TransactionID).
		Str("kasir_id", req.KasirID).
		Int("count", req.Count).
		Logger()

	log.Debug().Msg("allocating coupon numbers")

	var numbers []string
	err := retry.Do(
		func() error {
			numbers = nil
			return a.repo.WithinTx(ctx, func(tx repository.CouponTx) error {
				allocated, err := a.allocateInTx(ctx, tx, req)
				if err != nil {
					return err
				}
				numbers = allocated
				return nil
			})
		},
		retry.RetryIf(repository.IsRetryable),
		retry.Attempts(uint(a.config.RetryAttempts)),
		retry.Delay(a.config.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			if int(n)+1 < a.config.RetryAttempts {
				log.Warn().Err(err).Uint("attempt", n+1).Msg("allocation aborted by storage, replaying")
			}
		}),
	)

	if err != nil {
		switch {
		case errors.Is(err, model.ErrDuplicateIssuance):
			log.Warn().Msg("transaction already issued coupons")
			return nil, model.ErrDuplicateIssuance
		case errors.Is(err, model.ErrSequenceExhausted):
			log.Warn().Int("max_running", a.config.MaxRunning).Msg("coupon sequence exhausted")
			return nil, model.ErrSequenceExhausted
		default:
			log.Error().Err(err).Msg("coupon allocation failed")
			return nil, model.ErrAllocationFailed.Wrap(err)
		}
	}

	log.Info().
		Str("first", numbers[0]).
		Str("last", numbers[len(numbers)-1]).
		Msg("coupons allocated")

	return numbers, nil
}

// allocateInTx performs the locked read-compute-insert sequence. Any error
// returned here rolls the surrounding transaction back.
func (a *sequenceAllocator) allocateInTx(ctx context.Context, tx repository.CouponTx, req AllocateRequest) ([]string, error) {
	issued, err := tx.LockTransaction(ctx, req.Outlet, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if issued {
		return nil, model.ErrDuplicateIssuance
	}

	if err := tx.LockOutlet(ctx, req.Outlet); err != nil {
		return nil, err
	}

	last, err := tx.LastAllocated(ctx, req.Outlet)
	if err != nil {
		return nil, err
	}

	next := 1
	if last != nil {
		next = last.Running + 1
	}

	if next+req.Count-1 > a.config.MaxRunning {
		return nil, model.ErrSequenceExhausted
	}

	rows := make([]model.CouponInsert, req.Count)
	numbers := make([]string, req.Count)
	for i := range rows {
		running := next + i
		numbers[i] = model.FormatCouponNumber(req.Outlet, running)
		rows[i] = model.CouponInsert{
			CouponNumber:  numbers[i],
			Outlet:        req.Outlet,
			Running:       running,
			TransactionID: req.TransactionID,
			KasirID:       req.KasirID,
			Snapshot:      req.Snapshot,
		}
	}

	header := model.Issuance{
		Outlet:        req.Outlet,
		TransactionID: req.TransactionID,
		KasirID:       req.KasirID,
		FirstRunning:  next,
		CouponCount:   req.Count,
	}

	if err := tx.InsertBatch(ctx, header, rows); err != nil {
		return nil, err
	}

	return numbers, nil
}

func validateAllocateRequest(req AllocateRequest) error {
	if req.Outlet == "" {
		return fmt.Errorf("outlet is required")
	}
	if req.TransactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if req.Count < 1 {
		return model.ErrInvalidCouponCount
	}
	return nil
}
