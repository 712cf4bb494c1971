package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pos-coupon/internal/model"
	"pos-coupon/internal/pos"
	"pos-coupon/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockCouponRepository is a mock implementation of CouponRepository.
// WithinTx hands fn the CouponTx given to Return, unless an error is returned.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) WithinTx(ctx context.Context, fn func(tx repository.CouponTx) error) error {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return err
	}
	return fn(args.Get(0).(repository.CouponTx))
}

func (m *MockCouponRepository) FindByTransaction(ctx context.Context, outlet, transactionID string) ([]model.Coupon, error) {
	args := m.Called(ctx, outlet, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindByOutletAndKasir(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error) {
	args := m.Called(ctx, outlet, kasirID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error) {
	args := m.Called(ctx, outlet, kasirID, couponNumbers)
	return args.Get(0).(int64), args.Error(1)
}

// MockCouponTx is a mock implementation of CouponTx.
type MockCouponTx struct {
	mock.Mock
}

func (m *MockCouponTx) LockTransaction(ctx context.Context, outlet, transactionID string) (bool, error) {
	args := m.Called(ctx, outlet, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponTx) LockOutlet(ctx context.Context, outlet string) error {
	args := m.Called(ctx, outlet)
	return args.Error(0)
}

func (m *MockCouponTx) LastAllocated(ctx context.Context, outlet string) (*model.Coupon, error) {
	args := m.Called(ctx, outlet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponTx) InsertBatch(ctx context.Context, header model.Issuance, rows []model.CouponInsert) error {
	args := m.Called(ctx, header, rows)
	return args.Error(0)
}

// MockSequenceAllocator is a mock implementation of SequenceAllocator.
type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) Allocate(ctx context.Context, req AllocateRequest) ([]string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockTransactionSource is a mock implementation of pos.TransactionSource.
type MockTransactionSource struct {
	mock.Mock
}

func (m *MockTransactionSource) FindByID(ctx context.Context, outlet, transactionID string) (*model.Transaction, error) {
	args := m.Called(ctx, outlet, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionSource) ListEligible(ctx context.Context, q pos.EligibleQuery) ([]model.Transaction, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

// MockCashierDirectory is a mock implementation of pos.CashierDirectory.
type MockCashierDirectory struct {
	mock.Mock
}

func (m *MockCashierDirectory) FindByPasskey(ctx context.Context, passkey string) (*model.Cashier, error) {
	args := m.Called(ctx, passkey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cashier), args.Error(1)
}

// MockSessionSealer is a mock implementation of SessionSealer.
type MockSessionSealer struct {
	mock.Mock
}

func (m *MockSessionSealer) Seal(sess model.Session) (string, error) {
	args := m.Called(sess)
	return args.String(0), args.Error(1)
}

type issuanceKey struct {
	outlet        string
	transactionID string
}

// fakeLedger is an in-memory CouponRepository. WithinTx runs one transaction
// at a time and applies staged rows only when fn succeeds.
type fakeLedger struct {
	mu        sync.Mutex
	coupons   []model.Coupon
	issuances map[issuanceKey]model.Issuance
	nextID    int64

	// beginErrs are returned by successive WithinTx calls before fn runs.
	beginErrs []error
	// insertErrs are returned by successive InsertBatch calls.
	insertErrs []error
	txCount    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{issuances: make(map[issuanceKey]model.Issuance)}
}

// seed stores committed coupons for outlet with the given running numbers.
func (l *fakeLedger) seed(outlet, transactionID string, runnings ...int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, running := range runnings {
		l.nextID++
		l.coupons = append(l.coupons, model.Coupon{
			ID:            l.nextID,
			CouponNumber:  model.FormatCouponNumber(outlet, running),
			Outlet:        outlet,
			Running:       running,
			TransactionID: transactionID,
			CreatedAt:     time.Now(),
		})
	}
	l.issuances[issuanceKey{outlet, transactionID}] = model.Issuance{
		Outlet:        outlet,
		TransactionID: transactionID,
		FirstRunning:  runnings[0],
		CouponCount:   len(runnings),
	}
}

func (l *fakeLedger) snapshot() []model.Coupon {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Coupon, len(l.coupons))
	copy(out, l.coupons)
	return out
}

func (l *fakeLedger) transactions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.txCount
}

func (l *fakeLedger) WithinTx(ctx context.Context, fn func(tx repository.CouponTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.txCount++
	if len(l.beginErrs) > 0 {
		err := l.beginErrs[0]
		l.beginErrs = l.beginErrs[1:]
		return err
	}

	tx := &fakeTx{ledger: l}
	if err := fn(tx); err != nil {
		return err
	}

	for _, row := range tx.staged {
		l.nextID++
		l.coupons = append(l.coupons, model.Coupon{
			ID:            l.nextID,
			CouponNumber:  row.CouponNumber,
			Outlet:        row.Outlet,
			Running:       row.Running,
			TransactionID: row.TransactionID,
			KasirID:       row.KasirID,
			Customer:      row.Snapshot.Customer,
			Address:       row.Snapshot.Address,
			Phone:         row.Snapshot.Phone,
			Date:          row.Snapshot.Date,
			CreatedAt:     time.Now(),
		})
	}
	if tx.header != nil {
		l.issuances[issuanceKey{tx.header.Outlet, tx.header.TransactionID}] = *tx.header
	}
	return nil
}

func (l *fakeLedger) FindByTransaction(ctx context.Context, outlet, transactionID string) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range l.snapshot() {
		if c.Outlet == outlet && c.TransactionID == transactionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (l *fakeLedger) FindByOutletAndKasir(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error) {
	var out []model.Coupon
	for _, c := range l.snapshot() {
		if c.Outlet == outlet && c.KasirID == kasirID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (l *fakeLedger) MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error) {
	return 0, fmt.Errorf("not supported by fake ledger")
}

// fakeTx stages writes of one fakeLedger transaction. The ledger mutex is
// held for its whole lifetime.
type fakeTx struct {
	ledger *fakeLedger
	header *model.Issuance
	staged []model.CouponInsert
}

func (t *fakeTx) LockTransaction(ctx context.Context, outlet, transactionID string) (bool, error) {
	_, ok := t.ledger.issuances[issuanceKey{outlet, transactionID}]
	return ok, nil
}

func (t *fakeTx) LockOutlet(ctx context.Context, outlet string) error {
	return nil
}

func (t *fakeTx) LastAllocated(ctx context.Context, outlet string) (*model.Coupon, error) {
	var last *model.Coupon
	for i := range t.ledger.coupons {
		c := &t.ledger.coupons[i]
		if c.Outlet == outlet && (last == nil || c.Running > last.Running) {
			last = c
		}
	}
	if last == nil {
		return nil, nil
	}
	copied := *last
	return &copied, nil
}

func (t *fakeTx) InsertBatch(ctx context.Context, header model.Issuance, rows []model.CouponInsert) error {
	if len(t.ledger.insertErrs) > 0 {
		err := t.ledger.insertErrs[0]
		t.ledger.insertErrs = t.ledger.insertErrs[1:]
		return err
	}

	if _, ok := t.ledger.issuances[issuanceKey{header.Outlet, header.TransactionID}]; ok {
		return model.ErrDuplicateIssuance
	}

	for _, row := range rows {
		for _, c := range t.ledger.coupons {
			if c.Outlet == row.Outlet && c.Running == row.Running {
				return fmt.Errorf("duplicate running %d for outlet %s", row.Running, row.Outlet)
			}
		}
	}

	t.header = &header
	t.staged = append(t.staged, rows...)
	return nil
}
