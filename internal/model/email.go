package model

import (
	"fmt"
	"net/mail"

	"github.com/markmcclatchy/auth-service/internal/errs"
)

// Email is a validated, secret-wrapped email address. It is immutable once
// parsed; equality compares the underlying value, not the redacted form.
type Email struct {
	s Secret
}

// ParseEmail validates raw as a bare RFC 5321-style address.
func ParseEmail(raw string) (Email, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return Email{}, fmt.Errorf("%w: invalid email address", errs.ErrValidation)
	}
	return Email{s: NewSecret(raw)}, nil
}

// Expose returns the raw address for hashing, storage keys, or transport.
func (e Email) Expose() string { return e.s.Expose() }

// String always redacts.
func (e Email) String() string { return e.s.String() }

// Equal compares the underlying addresses.
func (e Email) Equal(other Email) bool { return e.s.Expose() == other.s.Expose() }

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool { return e.s.Expose() == "" }
