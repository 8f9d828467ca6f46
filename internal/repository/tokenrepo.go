package repository

import (
	"context"
	"time"

	"github.com/markmcclatchy/auth-service/internal/model"
)

// BannedTokenRepository records revoked session tokens keyed by the exact
// token string. Entries only need to live until the token's own expiry;
// after that, structural validation already rejects it.
type BannedTokenRepository interface {
	// Add bans token until expiresAt (backends with native TTL self-expire
	// the entry; others record expiresAt for explicit sweeps).
	Add(ctx context.Context, token string, expiresAt time.Time) error
	// Check returns nil when the token is not banned and
	// errs.ErrBannedToken when it is.
	Check(ctx context.Context, token string) error
}

// TwoFACodeRepository holds at most one pending second-factor challenge per
// email. A new challenge overwrites any prior one; consumption removes it.
type TwoFACodeRepository interface {
	Add(ctx context.Context, email model.Email, attemptID model.LoginAttemptID, code model.TwoFACode) error
	// Get returns errs.ErrNotFound when no challenge is pending.
	Get(ctx context.Context, email model.Email) (model.LoginAttemptID, model.TwoFACode, error)
	// Remove returns errs.ErrNotFound when no challenge is pending.
	Remove(ctx context.Context, email model.Email) error
}

// ResetTokenRepository holds at most one pending password-reset token per
// email, overwritten on re-initiation and removed on consumption.
type ResetTokenRepository interface {
	Add(ctx context.Context, email model.Email, token string) error
	// Get returns errs.ErrNotFound when no reset is pending.
	Get(ctx context.Context, email model.Email) (string, error)
	// Remove returns errs.ErrNotFound when no reset is pending.
	Remove(ctx context.Context, email model.Email) error
}
