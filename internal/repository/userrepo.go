// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/markmcclatchy/auth-service/internal/model"
)

// UserRepository provides account storage and credential validation.
// Backends return errs sentinels so the service layer can map them without
// knowing which backend is active.
type UserRepository interface {
	// Add inserts a new user with an already-computed password hash.
	// Returns errs.ErrAlreadyExists when the email is taken.
	Add(ctx context.Context, user model.User) error
	// Get loads a user by email. Returns errs.ErrNotFound when absent.
	Get(ctx context.Context, email model.Email) (*model.User, error)
	// UpdatePassword replaces the stored password hash.
	// Returns errs.ErrNotFound when the user does not exist.
	UpdatePassword(ctx context.Context, email model.Email, newHash string) error
	// Validate looks the user up and verifies password against the stored
	// hash. Returns errs.ErrNotFound for unknown users and
	// errs.ErrInvalidCredentials on a wrong password.
	Validate(ctx context.Context, email model.Email, password model.Password) (*model.User, error)
}
