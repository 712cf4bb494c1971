package handler

import (
	"net/http"
	"strings"

	"pos-coupon/internal/model"
	"pos-coupon/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon issuance and listing requests.
type CouponHandler struct {
	service service.IssuanceService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.IssuanceService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// List handles GET /api/coupons requests.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	coupons, err := h.service.ListIssued(r.Context(), sess.Outlet, sess.KasirID)
	if err != nil {
		writeDomainError(w, r, err, "failed to retrieve coupons", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.CouponListResponse{
		Outlet: sess.Outlet,
		Count:  len(coupons),
		Data:   coupons,
	})
}

// Issue handles POST /api/coupons requests.
func (h *CouponHandler) Issue(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req model.IssueRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	noTrans := strings.TrimSpace(req.NoTrans)
	if noTrans == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "noTrans is required", h.logger)
		return
	}

	numbers, err := h.service.IssueByTransactionID(r.Context(), sess.Outlet, sess.KasirID, noTrans)
	if err != nil {
		writeDomainError(w, r, err, "failed to issue coupons", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.IssueResponse{
		Status:        "success",
		Total:         len(numbers),
		CouponNumbers: numbers,
	})
}

// Print handles POST /api/coupons/print requests.
func (h *CouponHandler) Print(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req model.PrintRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if len(req.CouponNumbers) == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "couponNumbers is required", h.logger)
		return
	}

	updated, err := h.service.MarkPrinted(r.Context(), sess.Outlet, sess.KasirID, req.CouponNumbers)
	if err != nil {
		writeDomainError(w, r, err, "failed to mark coupons printed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.PrintResponse{Updated: updated})
}
