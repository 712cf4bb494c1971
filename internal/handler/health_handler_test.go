package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-coupon/internal/outlet"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(new(MockConnectionChecker), zerolog.Nop())

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}

func TestHealthHandler_Connections(t *testing.T) {
	checker := new(MockConnectionChecker)
	handler := NewHealthHandler(checker, zerolog.Nop())

	checker.On("CheckAll", mock.Anything).Return([]outlet.ConnectionStatus{
		{Outlet: "TKA", Host: "10.0.1.4", Status: outlet.StatusSuccess, Message: "Connected"},
		{Outlet: "TKB", Host: "10.0.1.5", Status: outlet.StatusFailed, Message: "connection refused"},
		{Outlet: "TKC", Host: "10.0.1.6", Status: outlet.StatusError, Message: "bad config"},
	})

	w := httptest.NewRecorder()
	handler.Connections(w, httptest.NewRequest(http.MethodGet, "/api/health/connections", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var report connectionReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, "TKB", report.Results[1].Outlet)
	checker.AssertExpectations(t)
}

func TestHealthHandler_Connections_MethodNotAllowed(t *testing.T) {
	checker := new(MockConnectionChecker)
	handler := NewHealthHandler(checker, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.Connections(w, httptest.NewRequest(http.MethodPost, "/api/health/connections", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	checker.AssertNotCalled(t, "CheckAll")
}
