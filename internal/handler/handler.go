package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pos-coupon/internal/middleware"
	"pos-coupon/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	correlationID := middleware.RequestIDFromContext(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("code", code).
		Str("error", message).
		Int("status", status).
		Str("request_id", correlationID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	})
}

// writeDomainError maps err to an HTTP status. Errors that are not domain
// errors become 500 with fallback as the message, except validation failures.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, r, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
		return
	}

	if strings.Contains(err.Error(), "required") {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, err.Error(), logger)
		return
	}

	logger.Error().Err(err).Msg(fallback)
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, fallback, logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeNotEligible, model.ErrCodeInvalidCouponCount:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateIssuance:
		return http.StatusConflict
	case model.ErrCodeSequenceExhausted:
		return http.StatusUnprocessableEntity
	case model.ErrCodeAllocationFailed, model.ErrCodeOutletUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeTransactionNotFound, model.ErrCodeCashierNotFound, model.ErrCodeOutletNotConfigured:
		return http.StatusNotFound
	case model.ErrCodeUnauthorised, model.ErrCodeCashierInactive:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// requireMethod writes 405 and returns false unless r uses method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string, logger zerolog.Logger) bool {
	if r.Method != method {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", logger)
		return false
	}
	return true
}

// requireSession returns the authenticated session or writes 401.
func requireSession(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*model.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrUnauthorised.Code, model.ErrUnauthorised.Message, logger)
		return nil, false
	}
	return sess, true
}

// decodeJSON decodes the request body into dst or writes 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}
