package handler

import (
	"context"
	"net/http"
	"time"

	"pos-coupon/internal/middleware"
	"pos-coupon/internal/model"
	"pos-coupon/internal/outlet"

	"github.com/stretchr/testify/mock"
)

// MockIssuanceService is a mock implementation of IssuanceService.
type MockIssuanceService struct {
	mock.Mock
}

func (m *MockIssuanceService) IssueForTransaction(ctx context.Context, outlet, kasirID string, trx model.Transaction) ([]string, error) {
	args := m.Called(ctx, outlet, kasirID, trx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockIssuanceService) IssueByTransactionID(ctx context.Context, outlet, kasirID, transactionID string) ([]string, error) {
	args := m.Called(ctx, outlet, kasirID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockIssuanceService) ListIssued(ctx context.Context, outlet, kasirID string) ([]model.Coupon, error) {
	args := m.Called(ctx, outlet, kasirID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockIssuanceService) ListEligible(ctx context.Context, outlet, kasirID string, day time.Time) ([]model.Transaction, error) {
	args := m.Called(ctx, outlet, kasirID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockIssuanceService) MarkPrinted(ctx context.Context, outlet, kasirID string, couponNumbers []string) (int64, error) {
	args := m.Called(ctx, outlet, kasirID, couponNumbers)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignIn(ctx context.Context, passkey string) (string, *model.Session, error) {
	args := m.Called(ctx, passkey)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.Session), args.Error(2)
}

// MockConnectionChecker is a mock implementation of ConnectionChecker.
type MockConnectionChecker struct {
	mock.Mock
}

func (m *MockConnectionChecker) CheckAll(ctx context.Context) []outlet.ConnectionStatus {
	args := m.Called(ctx)
	return args.Get(0).([]outlet.ConnectionStatus)
}

var testSession = &model.Session{KasirID: "K01", Name: "Kasir Satu", Outlet: "TKA"}

// withSession attaches the test session to req.
func withSession(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithSession(req.Context(), testSession))
}
