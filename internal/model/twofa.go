package model

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/gofrs/uuid/v5"

	"github.com/markmcclatchy/auth-service/internal/errs"
)

// LoginAttemptID identifies one pending second-factor challenge.
type LoginAttemptID struct {
	s Secret
}

// NewLoginAttemptID generates a fresh random attempt id.
func NewLoginAttemptID() (LoginAttemptID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return LoginAttemptID{}, err
	}
	return LoginAttemptID{s: NewSecret(id.String())}, nil
}

// ParseLoginAttemptID validates raw as a UUID.
func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	if _, err := uuid.FromString(raw); err != nil {
		return LoginAttemptID{}, fmt.Errorf("%w: invalid login attempt id", errs.ErrValidation)
	}
	return LoginAttemptID{s: NewSecret(raw)}, nil
}

// Expose returns the raw id for storage or transport.
func (id LoginAttemptID) Expose() string { return id.s.Expose() }

// String always redacts.
func (id LoginAttemptID) String() string { return id.s.String() }

// Equal compares the underlying ids.
func (id LoginAttemptID) Equal(other LoginAttemptID) bool {
	return id.s.Expose() == other.s.Expose()
}

// TwoFACode is a secret-wrapped 6-digit numeric second-factor code.
type TwoFACode struct {
	s Secret
}

// NewTwoFACode generates a random 6-digit code from crypto/rand.
func NewTwoFACode() (TwoFACode, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return TwoFACode{}, err
		}
		code[i] = '0' + byte(n.Int64())
	}
	return TwoFACode{s: NewSecret(string(code))}, nil
}

// ParseTwoFACode validates raw as exactly six ASCII digits.
func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != 6 {
		return TwoFACode{}, fmt.Errorf("%w: invalid two-factor code", errs.ErrValidation)
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return TwoFACode{}, fmt.Errorf("%w: invalid two-factor code", errs.ErrValidation)
		}
	}
	return TwoFACode{s: NewSecret(raw)}, nil
}

// Expose returns the raw code for storage or email delivery.
func (c TwoFACode) Expose() string { return c.s.Expose() }

// String always redacts.
func (c TwoFACode) String() string { return c.s.String() }

// Equal compares codes in constant time.
func (c TwoFACode) Equal(other TwoFACode) bool {
	return subtle.ConstantTimeCompare([]byte(c.s.Expose()), []byte(other.s.Expose())) == 1
}
