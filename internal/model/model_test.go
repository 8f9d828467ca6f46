package model

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	t.Parallel()

	valid := []string{
		"test@example.com",
		"a@x.com",
		"first.last@sub.domain.org",
		"user+tag@example.co.uk",
	}
	for _, raw := range valid {
		email, err := ParseEmail(raw)
		require.NoError(t, err, raw)
		require.Equal(t, raw, email.Expose())
	}

	invalid := []string{
		"",
		"not-an-email",
		"@example.com",
		"user@",
		"user example.com",
		"Name <user@example.com>",
	}
	for _, raw := range invalid {
		_, err := ParseEmail(raw)
		require.Error(t, err, raw)
	}
}

func TestParsePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw string
		ok  bool
	}{
		{"P@ssw0rd", true},
		{"P@ssw0rd1", true},
		{"Abcdefg1", true},
		{"P@ss", false},     // too short
		{"p@ssw0rd", false}, // no uppercase
		{"Password", false}, // no digit
		{"password", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParsePassword(tc.raw)
		if tc.ok {
			require.NoError(t, err, tc.raw)
		} else {
			require.Error(t, err, tc.raw)
		}
	}
}

func TestLoginAttemptID(t *testing.T) {
	t.Parallel()

	id, err := NewLoginAttemptID()
	require.NoError(t, err)
	_, err = uuid.FromString(id.Expose())
	require.NoError(t, err)

	parsed, err := ParseLoginAttemptID(id.Expose())
	require.NoError(t, err)
	require.True(t, parsed.Equal(id))

	_, err = ParseLoginAttemptID("not-a-uuid")
	require.Error(t, err)
}

func TestTwoFACode(t *testing.T) {
	t.Parallel()

	code, err := NewTwoFACode()
	require.NoError(t, err)
	require.Len(t, code.Expose(), 6)
	for _, r := range code.Expose() {
		require.True(t, r >= '0' && r <= '9')
	}

	parsed, err := ParseTwoFACode(code.Expose())
	require.NoError(t, err)
	require.True(t, parsed.Equal(code))

	for _, raw := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
		_, err := ParseTwoFACode(raw)
		require.Error(t, err, raw)
	}
}

func TestSecretsRedactEverywhere(t *testing.T) {
	t.Parallel()

	email, err := ParseEmail("test@example.com")
	require.NoError(t, err)
	password, err := ParsePassword("P@ssw0rd1")
	require.NoError(t, err)

	require.Equal(t, Redacted, email.String())
	require.Equal(t, Redacted, password.String())
	require.Equal(t, Redacted, fmt.Sprintf("%v", email))
	require.NotContains(t, fmt.Sprintf("%#v", NewSecret("hunter2")), "hunter2")

	out, err := json.Marshal(NewSecret("hunter2"))
	require.NoError(t, err)
	require.JSONEq(t, `"`+Redacted+`"`, string(out))
}
