// Package service implements the session lifecycle flows on top of the
// capability stores, the token codec, the password hasher, and the outbound
// email collaborator.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/markmcclatchy/auth-service/internal/crypto"
	"github.com/markmcclatchy/auth-service/internal/email"
	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
	"github.com/markmcclatchy/auth-service/internal/repository"
	"github.com/markmcclatchy/auth-service/internal/token"
)

// Email copy for the two delivery points.
const (
	twoFASubject = "Your login verification code"
	resetSubject = "Password reset"
)

// LoginResult is the outcome of a successful first-factor login: either a
// session token, or a pending second-factor challenge identified by
// AttemptID.
type LoginResult struct {
	Token             string
	TwoFactorRequired bool
	AttemptID         model.LoginAttemptID
}

// AuthService defines the session lifecycle operations.
type AuthService interface {
	// Signup registers a new account. Duplicate emails surface
	// errs.ErrAlreadyExists.
	Signup(ctx context.Context, rawEmail, rawPassword string, requires2FA bool) error
	// Login authenticates the first factor and either issues a session token
	// or opens a second-factor challenge.
	Login(ctx context.Context, rawEmail, rawPassword string) (LoginResult, error)
	// VerifyTwoFactor consumes a pending challenge and issues a session token.
	VerifyTwoFactor(ctx context.Context, rawEmail, rawAttemptID, rawCode string) (string, error)
	// Logout revokes a valid session token.
	Logout(ctx context.Context, tokenString string) error
	// VerifyToken validates a session credential and returns its claims.
	VerifyToken(ctx context.Context, tokenString string) (*token.Claims, error)
	// InitiatePasswordReset issues and delivers a reset token. It succeeds
	// identically whether or not the email is registered.
	InitiatePasswordReset(ctx context.Context, rawEmail string) error
	// ResetPassword consumes a reset token, updates the password, and returns
	// a fresh session token.
	ResetPassword(ctx context.Context, tokenString, rawNewPassword string) (string, error)
}

// AuthServiceImpl binds one backend per capability. Constructed once per
// process and shared across requests; stores guard their own state.
type AuthServiceImpl struct {
	users       repository.UserRepository
	banned      repository.BannedTokenRepository
	codes       repository.TwoFACodeRepository
	resets      repository.ResetTokenRepository
	mail        email.Client
	tokens      *token.Manager
	hasher      *crypto.Hasher
	lockTimeout time.Duration
}

// NewAuthService constructs the service bundle. lockTimeout bounds the
// two-factor store access inside VerifyTwoFactor.
func NewAuthService(
	users repository.UserRepository,
	banned repository.BannedTokenRepository,
	codes repository.TwoFACodeRepository,
	resets repository.ResetTokenRepository,
	mail email.Client,
	tokens *token.Manager,
	hasher *crypto.Hasher,
	lockTimeout time.Duration,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:       users,
		banned:      banned,
		codes:       codes,
		resets:      resets,
		mail:        mail,
		tokens:      tokens,
		hasher:      hasher,
		lockTimeout: lockTimeout,
	}
}

// Signup parses credentials, hashes the password off the request goroutine,
// and inserts the account.
func (s *AuthServiceImpl) Signup(ctx context.Context, rawEmail, rawPassword string, requires2FA bool) error {
	em, err := model.ParseEmail(rawEmail)
	if err != nil {
		return err
	}
	pw, err := model.ParsePassword(rawPassword)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.Add(ctx, model.User{
		Email:        em,
		PasswordHash: hash,
		Requires2FA:  requires2FA,
		CreatedAt:    time.Now().UTC(),
	})
}

// Login validates the first factor. Unknown users surface the same
// ErrInvalidCredentials as a wrong password.
func (s *AuthServiceImpl) Login(ctx context.Context, rawEmail, rawPassword string) (LoginResult, error) {
	em, err := model.ParseEmail(rawEmail)
	if err != nil {
		return LoginResult{}, err
	}
	pw, err := model.ParsePassword(rawPassword)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.Validate(ctx, em, pw)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return LoginResult{}, errs.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !user.Requires2FA {
		signed, err := s.tokens.IssueAuth(em)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Token: signed}, nil
	}
	return s.openTwoFactorChallenge(ctx, em)
}

// openTwoFactorChallenge stores a fresh (attemptID, code) pair, overwriting
// any prior pending challenge, and emails the code. A delivery failure after
// the store succeeded is surfaced; the challenge stays pending and a later
// login attempt supersedes it.
func (s *AuthServiceImpl) openTwoFactorChallenge(ctx context.Context, em model.Email) (LoginResult, error) {
	attemptID, err := model.NewLoginAttemptID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate login attempt id: %w", err)
	}
	code, err := model.NewTwoFACode()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate two-factor code: %w", err)
	}

	if err := s.codes.Add(ctx, em, attemptID, code); err != nil {
		return LoginResult{}, fmt.Errorf("store two-factor challenge: %w", err)
	}
	body := fmt.Sprintf("Your verification code is %s. It expires shortly.", code.Expose())
	if err := s.mail.Send(ctx, em, twoFASubject, body); err != nil {
		return LoginResult{}, fmt.Errorf("send two-factor code: %w", err)
	}
	return LoginResult{TwoFactorRequired: true, AttemptID: attemptID}, nil
}

// VerifyTwoFactor checks the supplied pair against the pending challenge.
// Any mismatch, and an absent challenge, surface the same
// ErrInvalidCredentials so the response never reveals which field was wrong.
func (s *AuthServiceImpl) VerifyTwoFactor(ctx context.Context, rawEmail, rawAttemptID, rawCode string) (string, error) {
	em, err := model.ParseEmail(rawEmail)
	if err != nil {
		return "", err
	}
	attemptID, err := model.ParseLoginAttemptID(rawAttemptID)
	if err != nil {
		return "", err
	}
	code, err := model.ParseTwoFACode(rawCode)
	if err != nil {
		return "", err
	}

	// Bound store access so pathological lock contention fails the request
	// instead of hanging it.
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	storedID, storedCode, err := s.codes.Get(lockCtx, em)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrInvalidCredentials
		}
		return "", fmt.Errorf("load two-factor challenge: %w", err)
	}
	if !storedID.Equal(attemptID) || !storedCode.Equal(code) {
		return "", errs.ErrInvalidCredentials
	}

	// One-shot consumption before token issue. Losing the removal race to a
	// concurrent verify means the challenge was already spent.
	if err := s.codes.Remove(lockCtx, em); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrInvalidCredentials
		}
		return "", fmt.Errorf("consume two-factor challenge: %w", err)
	}
	return s.tokens.IssueAuth(em)
}

// Logout revokes the presented token for the remainder of its own lifetime.
// A second logout with the same token fails verification on the ban check,
// which is the intended idempotent-revocation behavior.
func (s *AuthServiceImpl) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return errs.ErrMissingToken
	}
	claims, err := s.tokens.Verify(ctx, s.banned, tokenString)
	if err != nil {
		return err
	}
	if err := s.banned.Add(ctx, tokenString, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("ban token: %w", err)
	}
	return nil
}

// VerifyToken accepts any structurally valid, unbanned token as a session
// credential regardless of purpose.
func (s *AuthServiceImpl) VerifyToken(ctx context.Context, tokenString string) (*token.Claims, error) {
	if tokenString == "" {
		return nil, errs.ErrMissingToken
	}
	return s.tokens.Verify(ctx, s.banned, tokenString)
}

// InitiatePasswordReset returns nil for unknown emails without sending
// anything, so the caller-visible outcome never reveals whether an account
// exists.
func (s *AuthServiceImpl) InitiatePasswordReset(ctx context.Context, rawEmail string) error {
	em, err := model.ParseEmail(rawEmail)
	if err != nil {
		return err
	}

	if _, err := s.users.Get(ctx, em); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up user: %w", err)
	}

	signed, err := s.tokens.IssueReset(em)
	if err != nil {
		return err
	}
	if err := s.resets.Add(ctx, em, signed); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	body := fmt.Sprintf("Use this token to reset your password: %s", signed)
	if err := s.mail.Send(ctx, em, resetSubject, body); err != nil {
		return fmt.Errorf("send reset token: %w", err)
	}
	return nil
}

// ResetPassword consumes the pending reset record, replaces the stored hash,
// and signs the caller in with a fresh session token. The three store
// mutations are not atomic; a crash between them leaves the reset consumed
// or the password changed, never a half-written record.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, tokenString, rawNewPassword string) (string, error) {
	if tokenString == "" {
		return "", errs.ErrMissingToken
	}
	pw, err := model.ParsePassword(rawNewPassword)
	if err != nil {
		return "", err
	}

	claims, err := s.tokens.Verify(ctx, s.banned, tokenString)
	if err != nil {
		return "", err
	}
	if claims.Purpose != token.PurposePasswordReset {
		return "", fmt.Errorf("%w: not a password reset token", errs.ErrInvalidToken)
	}
	em, err := claims.Email()
	if err != nil {
		return "", err
	}

	// Consume the pending record first: a token whose record is gone was
	// already used or superseded.
	if err := s.resets.Remove(ctx, em); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", fmt.Errorf("%w: reset already used or expired", errs.ErrInvalidToken)
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, pw)
	if err != nil {
		return "", fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, em, hash); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return s.tokens.IssueAuth(em)
}
