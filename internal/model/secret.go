// Package model defines domain entities and credential value types used by
// services and repositories. Sensitive values are wrapped so they cannot leak
// through formatting or JSON encoding.
package model

// Redacted is what a Secret prints instead of its value.
const Redacted = "[REDACTED]"

// Secret wraps a sensitive string. Default formatting and JSON encoding are
// redacted; the raw value is only reachable through Expose at the point of
// genuine need (hashing, signing, transport).
type Secret struct {
	v string
}

// NewSecret wraps v.
func NewSecret(v string) Secret { return Secret{v: v} }

// Expose returns the raw wrapped value.
func (s Secret) Expose() string { return s.v }

// String implements fmt.Stringer and always redacts.
func (s Secret) String() string { return Redacted }

// GoString redacts %#v output as well.
func (s Secret) GoString() string { return "model.Secret(" + Redacted + ")" }

// MarshalJSON encodes the redaction marker, never the value.
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + Redacted + `"`), nil }
