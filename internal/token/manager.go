// Package token signs, verifies, and decodes the bearer tokens issued by the
// service: session tokens and password-reset tokens, distinguished by a
// purpose claim.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

// Purpose tags claims so a session token can never stand in for a
// password-reset token or vice versa.
type Purpose string

// Token purposes.
const (
	PurposeAuth          Purpose = "auth"
	PurposePasswordReset Purpose = "password_reset"
)

// Claims is the signed token payload: subject (email), expiry, purpose.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Email parses the subject back into a validated address.
func (c *Claims) Email() (model.Email, error) {
	email, err := model.ParseEmail(c.Subject)
	if err != nil {
		return model.Email{}, fmt.Errorf("%w: bad subject", errs.ErrInvalidToken)
	}
	return email, nil
}

// BanChecker reports whether an exact token string has been revoked.
// It is satisfied by repository.BannedTokenRepository.
type BanChecker interface {
	Check(ctx context.Context, token string) error
}

// Manager issues and verifies HS256-signed tokens. Tokens are never renewed
// or mutated; a token is issued once and then either expires or is banned.
type Manager struct {
	secret   []byte
	authTTL  time.Duration
	resetTTL time.Duration
}

// NewManager constructs a Manager. authTTL bounds session tokens, resetTTL
// bounds password-reset tokens (longer than authTTL in reference config).
func NewManager(secret []byte, authTTL, resetTTL time.Duration) *Manager {
	return &Manager{secret: secret, authTTL: authTTL, resetTTL: resetTTL}
}

// AuthTTL returns the session token lifetime.
func (m *Manager) AuthTTL() time.Duration { return m.authTTL }

// ResetTTL returns the password-reset token lifetime.
func (m *Manager) ResetTTL() time.Duration { return m.resetTTL }

// IssueAuth creates a fresh session token for email.
func (m *Manager) IssueAuth(email model.Email) (string, error) {
	return m.issue(email, PurposeAuth, m.authTTL)
}

// IssueReset creates a fresh password-reset token for email.
func (m *Manager) IssueReset(email model.Email) (string, error) {
	return m.issue(email, PurposePasswordReset, m.resetTTL)
}

func (m *Manager) issue(email model.Email, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email.Expose(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// DecodeStructure verifies signature and expiry only; it does not consult
// revocation state.
func (m *Manager) DecodeStructure(tokenString string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}
	if claims.Purpose != PurposeAuth && claims.Purpose != PurposePasswordReset {
		return nil, fmt.Errorf("%w: unknown purpose", errs.ErrInvalidToken)
	}
	return &claims, nil
}

// Verify checks structure first (cheap, local) and then asks the revocation
// store whether this exact token string is banned. A banned token fails even
// when signature and expiry are valid. Callers that require a specific
// purpose must check Claims.Purpose themselves.
func (m *Manager) Verify(ctx context.Context, banned BanChecker, tokenString string) (*Claims, error) {
	claims, err := m.DecodeStructure(tokenString)
	if err != nil {
		return nil, err
	}
	if err := banned.Check(ctx, tokenString); err != nil {
		return nil, err
	}
	return claims, nil
}
