package service

import (
	"context"
	"fmt"
	"time"

	"pos-coupon/internal/model"
	"pos-coupon/internal/pos"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionSealer turns a session into an opaque cookie value.
type SessionSealer interface {
	Seal(sess model.Session) (string, error)
}

// authService implements AuthService.
type authService struct {
	cashiers pos.CashierDirectory
	sealer   SessionSealer
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(cashiers pos.CashierDirectory, sealer SessionSealer, logger zerolog.Logger) AuthService {
	return &authService{
		cashiers: cashiers,
		sealer:   sealer,
		now:      time.Now,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// SignIn resolves a passkey to an active cashier and seals a new session.
func (s *authService) SignIn(ctx context.Context, passkey string) (string, *model.Session, error) {
	if passkey == "" {
		return "", nil, fmt.Errorf("passkey is required")
	}

	cashier, err := s.cashiers.FindByPasskey(ctx, passkey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up cashier")
		return "", nil, err
	}

	if cashier == nil {
		s.logger.Warn().Msg("unknown passkey")
		return "", nil, model.ErrCashierNotFound
	}

	if !cashier.IsActive {
		s.logger.Warn().Str("kasir_id", cashier.Kode).Msg("inactive cashier attempted sign in")
		return "", nil, model.ErrCashierInactive
	}

	sess := &model.Session{
		ID:       uuid.New(),
		KasirID:  cashier.Kode,
		Name:     cashier.Nama,
		Outlet:   cashier.Outlet,
		IssuedAt: s.now().UTC(),
	}

	token, err := s.sealer.Seal(*sess)
	if err != nil {
		s.logger.Error().Err(err).Str("kasir_id", cashier.Kode).Msg("failed to seal session")
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info().
		Str("kasir_id", cashier.Kode).
		Str("outlet", cashier.Outlet).
		Str("session_id", sess.ID.String()).
		Msg("cashier signed in")

	return token, sess, nil
}
