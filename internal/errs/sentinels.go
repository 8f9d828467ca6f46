// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates malformed client input (email, password, code, id).
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials indicates failed authentication (wrong password,
	// unknown user, or 2FA mismatch; callers cannot tell which).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingToken indicates a request that requires a token arrived without one.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken indicates a token that failed signature, expiry, or purpose checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrBannedToken indicates a token that was explicitly revoked before its natural expiry.
	ErrBannedToken = errors.New("banned token")
)
