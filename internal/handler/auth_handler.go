package handler

import (
	"errors"
	"net/http"
	"time"

	"pos-coupon/internal/model"
	"pos-coupon/internal/service"

	"github.com/rs/zerolog"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// AuthHandler handles cashier sign-in and session requests.
type AuthHandler struct {
	service service.AuthService
	cookie  CookieConfig
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, cookie CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// SignIn handles POST /api/auth/signin requests.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	var req model.SignInRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if req.Passkey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "passkey is required", h.logger)
		return
	}

	token, sess, err := h.service.SignIn(r.Context(), req.Passkey)
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == model.ErrCodeCashierNotFound {
			writeError(w, r, http.StatusNotFound, domainErr.Code, "Passkey not recognised", h.logger)
			return
		}
		writeDomainError(w, r, err, "failed to sign in", h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, model.SignInResponse{
		Message: "Login successful",
		Kode:    sess.KasirID,
		Nama:    sess.Name,
		Outlet:  sess.Outlet,
	})
}

// SignOut handles POST /api/auth/signout requests.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Session handles GET /api/auth/session requests.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, sess)
}
