package model

import "time"

// NewUser is the pre-hash lifecycle stage of an account: parsed credentials
// plus the second-factor flag, as accepted by the signup flow.
type NewUser struct {
	Email       Email
	Password    Password
	Requires2FA bool
}

// User is the stored account record. The plaintext password never appears
// here; PasswordHash is a PHC-encoded Argon2id digest with embedded salt
// and parameters.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
	CreatedAt    time.Time
}
