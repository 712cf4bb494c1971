package router

import (
	"net/http"

	"pos-coupon/internal/handler"
	"pos-coupon/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Coupon      *handler.CouponHandler
	Transaction *handler.TransactionHandler
	Health      *handler.HealthHandler
}

// SessionConfig configures cookie-based authentication.
type SessionConfig struct {
	Opener     middleware.SessionOpener
	CookieName string
}

// PublicPaths are served without a session.
var PublicPaths = []string{
	"/health",
	"/api/health/connections",
	"/api/auth/signin",
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, session SessionConfig, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no authentication required)
	mux.HandleFunc("/health", h.Health.Health)
	mux.HandleFunc("/api/health/connections", h.Health.Connections)

	mux.HandleFunc("/api/auth/signin", h.Auth.SignIn)
	mux.HandleFunc("/api/auth/signout", h.Auth.SignOut)
	mux.HandleFunc("/api/auth/session", h.Auth.Session)

	mux.HandleFunc("/api/transactions", h.Transaction.ListEligible)

	// Coupon routes dispatch on method; unsupported methods reach Issue and get 405.
	mux.HandleFunc("/api/coupons", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Coupon.List(w, r)
			return
		}
		h.Coupon.Issue(w, r)
	})
	mux.HandleFunc("/api/coupons/print", h.Coupon.Print)

	// Apply middleware in order: RequestID -> Recovery -> Logging -> CORS -> SessionAuth
	var handler http.Handler = mux
	handler = middleware.SessionAuth(session.Opener, session.CookieName, PublicPaths, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
