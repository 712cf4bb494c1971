package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// RunningWidth is the number of digits of the running component of a coupon number.
	RunningWidth = 6

	// MaxRunning is the highest running number any outlet may ever issue.
	MaxRunning = 100_000
)

// Coupon is a single ledger row. Snapshot fields are copied from the source
// transaction at issuance time and never re-synced.
type Coupon struct {
	ID            int64      `json:"id" db:"id"`
	CouponNumber  string     `json:"couponNumber" db:"coupon_number"`
	Outlet        string     `json:"outlet" db:"outlet"`
	Running       int        `json:"running" db:"running"`
	TransactionID string     `json:"transactionId" db:"transaction_id"`
	KasirID       string     `json:"kasirId" db:"kasir_id"`
	Customer      string     `json:"customer" db:"customer"`
	Address       string     `json:"address" db:"address"`
	Phone         string     `json:"phone" db:"phone"`
	Date          time.Time  `json:"date" db:"date"`
	IsPrinted     bool       `json:"isPrinted" db:"is_printed"`
	PrintedAt     *time.Time `json:"printedAt,omitempty" db:"printed_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
}

// CouponInsert is a row about to be written by the allocator.
type CouponInsert struct {
	CouponNumber  string
	Outlet        string
	Running       int
	TransactionID string
	KasirID       string
	Snapshot      Snapshot
}

// Issuance is the batch header written once per (outlet, transaction).
type Issuance struct {
	Outlet        string
	TransactionID string
	KasirID       string
	FirstRunning  int
	CouponCount   int
}

// Snapshot is the customer information persisted on every coupon of a batch.
type Snapshot struct {
	Customer string    `json:"customer"`
	Address  string    `json:"address"`
	Phone    string    `json:"phone"`
	Date     time.Time `json:"date"`
}

// Transaction is a point-of-sale transaction as read from the outlet database.
type Transaction struct {
	ID       string    `json:"id"`
	KasirID  string    `json:"kasirId,omitempty"`
	Date     time.Time `json:"date"`
	Time     string    `json:"time,omitempty"`
	Amount   float64   `json:"amount"`
	Customer string    `json:"customer"`
	Address  string    `json:"address"`
	Phone    string    `json:"phone"`
}

// Snapshot returns the customer fields that are copied onto each coupon.
func (t Transaction) Snapshot() Snapshot {
	return Snapshot{
		Customer: t.Customer,
		Address:  t.Address,
		Phone:    t.Phone,
		Date:     t.Date,
	}
}

// FormatCouponNumber renders "{outlet}-{running}" with a zero-padded running part.
func FormatCouponNumber(outlet string, running int) string {
	return fmt.Sprintf("%s-%0*d", outlet, RunningWidth, running)
}

// ParseRunning extracts the running component from a coupon number.
func ParseRunning(couponNumber string) (int, error) {
	idx := strings.LastIndex(couponNumber, "-")
	if idx < 0 || idx == len(couponNumber)-1 {
		return 0, fmt.Errorf("malformed coupon number %q", couponNumber)
	}
	running, err := strconv.Atoi(couponNumber[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed coupon number %q: %w", couponNumber, err)
	}
	return running, nil
}

// IssueRequest represents the request payload for issuing coupons.
type IssueRequest struct {
	NoTrans string `json:"noTrans"`
}

// IssueResponse represents the response payload after issuing coupons.
type IssueResponse struct {
	Status        string   `json:"status"`
	Total         int      `json:"total"`
	CouponNumbers []string `json:"data"`
}

// PrintRequest confirms physical printing of coupons.
type PrintRequest struct {
	CouponNumbers []string `json:"couponNumbers"`
}

// PrintResponse reports how many coupons moved to the printed state.
type PrintResponse struct {
	Updated int64 `json:"updated"`
}

// TransactionListResponse is returned by the eligible transaction listing.
type TransactionListResponse struct {
	Outlet string        `json:"outlet"`
	Count  int           `json:"count"`
	Data   []Transaction `json:"data"`
}

// CouponListResponse is returned by the issued coupon listing.
type CouponListResponse struct {
	Outlet string   `json:"outlet"`
	Count  int      `json:"count"`
	Data   []Coupon `json:"data"`
}
