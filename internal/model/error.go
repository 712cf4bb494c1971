package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeNotEligible         = "NOT_ELIGIBLE"
	ErrCodeDuplicateIssuance   = "DUPLICATE_ISSUANCE"
	ErrCodeSequenceExhausted   = "SEQUENCE_EXHAUSTED"
	ErrCodeAllocationFailed    = "ALLOCATION_FAILED"
	ErrCodeInvalidCouponCount  = "INVALID_COUPON_COUNT"
	ErrCodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	ErrCodeCashierNotFound     = "CASHIER_NOT_FOUND"
	ErrCodeCashierInactive     = "CASHIER_INACTIVE"
	ErrCodeOutletNotConfigured = "OUTLET_NOT_CONFIGURED"
	ErrCodeOutletUnavailable   = "OUTLET_UNAVAILABLE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a business failure identified by Code. Err optionally
// carries the underlying cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of the error carrying cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotEligible         = NewDomainError(ErrCodeNotEligible, "Transaction does not qualify for a coupon")
	ErrDuplicateIssuance   = NewDomainError(ErrCodeDuplicateIssuance, "Coupons were already issued for this transaction")
	ErrSequenceExhausted   = NewDomainError(ErrCodeSequenceExhausted, "Coupon number sequence exhausted for this outlet")
	ErrAllocationFailed    = NewDomainError(ErrCodeAllocationFailed, "Coupon allocation failed")
	ErrInvalidCouponCount  = NewDomainError(ErrCodeInvalidCouponCount, "Coupon count must be at least one")
	ErrTransactionNotFound = NewDomainError(ErrCodeTransactionNotFound, "Transaction not found")
	ErrCashierNotFound     = NewDomainError(ErrCodeCashierNotFound, "Cashier not found")
	ErrCashierInactive     = NewDomainError(ErrCodeCashierInactive, "Cashier is not active")
	ErrOutletNotConfigured = NewDomainError(ErrCodeOutletNotConfigured, "Outlet is not configured")
	ErrOutletUnavailable   = NewDomainError(ErrCodeOutletUnavailable, "Outlet database is unavailable")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "No valid session")
)
