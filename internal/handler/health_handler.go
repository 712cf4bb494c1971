package handler

import (
	"context"
	"net/http"

	"pos-coupon/internal/outlet"

	"github.com/rs/zerolog"
)

// ConnectionChecker reports the reachability of every outlet database.
type ConnectionChecker interface {
	CheckAll(ctx context.Context) []outlet.ConnectionStatus
}

// connectionReport is the body of GET /api/health/connections.
type connectionReport struct {
	Total   int                       `json:"total"`
	Success int                       `json:"success"`
	Failed  int                       `json:"failed"`
	Results []outlet.ConnectionStatus `json:"results"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checker ConnectionChecker
	logger  zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(checker ConnectionChecker, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger.With().Str("handler", "health").Logger(),
	}
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Connections handles GET /api/health/connections requests.
func (h *HealthHandler) Connections(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	results := h.checker.CheckAll(r.Context())

	report := connectionReport{Total: len(results), Results: results}
	for _, res := range results {
		if res.Status == outlet.StatusSuccess {
			report.Success++
		} else {
			report.Failed++
		}
	}

	h.logger.Info().
		Int("total", report.Total).
		Int("failed", report.Failed).
		Msg("outlet connections checked")

	writeJSON(w, http.StatusOK, report)
}
