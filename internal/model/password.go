package model

import (
	"fmt"
	"unicode"

	"github.com/markmcclatchy/auth-service/internal/errs"
)

const passwordRequirements = "password must be at least 8 characters long and contain at least one uppercase letter and one digit"

// Password is a validated, secret-wrapped plaintext password. It is never
// persisted; storage always goes through a PasswordHash.
type Password struct {
	s Secret
}

// ParsePassword validates raw against the password policy: length >= 8,
// at least one uppercase letter, at least one digit.
func ParsePassword(raw string) (Password, error) {
	var hasUpper, hasDigit bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if len(raw) < 8 || !hasUpper || !hasDigit {
		return Password{}, fmt.Errorf("%w: %s", errs.ErrValidation, passwordRequirements)
	}
	return Password{s: NewSecret(raw)}, nil
}

// Expose returns the raw password for hashing or verification only.
func (p Password) Expose() string { return p.s.Expose() }

// String always redacts.
func (p Password) String() string { return p.s.String() }
