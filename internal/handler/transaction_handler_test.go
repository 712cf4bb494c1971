package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-coupon/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransactionHandler_ListEligible(t *testing.T) {
	logger := zerolog.Nop()
	today := time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC)

	trxs := []model.Transaction{
		{ID: "TRX-3", KasirID: "K01", Amount: 1_000_000, Customer: "Andi"},
		{ID: "TRX-1", KasirID: "K01", Amount: 2_500_000, Customer: "Budi"},
	}

	tests := []struct {
		name           string
		query          string
		expectedDay    time.Time
		mockReturn     []model.Transaction
		mockError      error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "Defaults to today",
			expectedDay:    today,
			mockReturn:     trxs,
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Explicit date",
			query:          "?date=2026-03-13",
			expectedDay:    time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
			mockReturn:     []model.Transaction{},
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid date",
			query:          "?date=13-03-2026",
			expectService:  false,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Outlet unavailable",
			expectedDay:    today,
			mockError:      model.ErrOutletUnavailable.Wrap(errors.New("dial tcp: timeout")),
			expectService:  true,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockIssuanceService)
			handler := NewTransactionHandler(mockService, logger)
			handler.now = func() time.Time { return today }

			if tt.expectService {
				mockService.On("ListEligible", mock.Anything, "TKA", "K01", tt.expectedDay).
					Return(tt.mockReturn, tt.mockError)
			}

			req := withSession(httptest.NewRequest(http.MethodGet, "/api/transactions"+tt.query, nil))
			w := httptest.NewRecorder()

			handler.ListEligible(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp model.TransactionListResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "TKA", resp.Outlet)
				assert.Equal(t, len(tt.mockReturn), resp.Count)
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "ListEligible")
			}
		})
	}
}

func TestTransactionHandler_ListEligible_NoSession(t *testing.T) {
	mockService := new(MockIssuanceService)
	handler := NewTransactionHandler(mockService, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.ListEligible(w, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "ListEligible")
}
