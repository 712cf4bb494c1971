package handler

import (
	"net/http"
	"time"

	"pos-coupon/internal/model"
	"pos-coupon/internal/service"

	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// TransactionHandler handles eligible transaction listing requests.
type TransactionHandler struct {
	service service.IssuanceService
	now     func() time.Time
	logger  zerolog.Logger
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(service service.IssuanceService, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		now:     time.Now,
		logger:  logger.With().Str("handler", "transaction").Logger(),
	}
}

// ListEligible handles GET /api/transactions requests. The optional date
// query parameter (YYYY-MM-DD) defaults to today.
func (h *TransactionHandler) ListEligible(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	day := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, day.Location())
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "date must be formatted as YYYY-MM-DD", h.logger)
			return
		}
		day = parsed
	}

	trxs, err := h.service.ListEligible(r.Context(), sess.Outlet, sess.KasirID, day)
	if err != nil {
		writeDomainError(w, r, err, "failed to retrieve transactions", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.TransactionListResponse{
		Outlet: sess.Outlet,
		Count:  len(trxs),
		Data:   trxs,
	})
}
