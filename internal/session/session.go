package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pos-coupon/internal/model"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidToken is returned for tokens that cannot be decrypted or decoded.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken is returned for tokens issued longer than the max age ago.
	ErrExpiredToken = errors.New("session token expired")
)

// Sealer encrypts sessions into opaque cookie values and back.
type Sealer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSealer creates a sealer from a 32-byte secret. A zero maxAge disables expiry.
func NewSealer(secret []byte, maxAge time.Duration) (*Sealer, error) {
	if len(secret) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session secret must be %d bytes, got %d", chacha20poly1305.KeySize, len(secret))
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &Sealer{
		key:    key,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// Seal encrypts sess with a random nonce.
func (s *Sealer) Seal(sess model.Session) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal and checks its age.
func (s *Sealer) Open(token string) (*model.Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrInvalidToken
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var sess model.Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return nil, ErrInvalidToken
	}

	if s.maxAge > 0 && s.now().Sub(sess.IssuedAt) > s.maxAge {
		return nil, ErrExpiredToken
	}

	return &sess, nil
}
