package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/markmcclatchy/auth-service/internal/crypto"
	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL. The unique constraint
// on email backstops duplicate signups at the storage layer.
type UserRepo struct {
	db     *DB
	hasher *crypto.Hasher
}

// NewUserRepo constructs a user repository. hasher is used by Validate.
func NewUserRepo(db *DB, hasher *crypto.Hasher) *UserRepo {
	return &UserRepo{db: db, hasher: hasher}
}

// Add inserts a new user row.
func (r *UserRepo) Add(ctx context.Context, user model.User) error {
	const q = `
INSERT INTO users (email, password_hash, requires_2fa)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, user.Email.Expose(), user.PasswordHash, user.Requires2FA)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get selects a user by email.
func (r *UserRepo) Get(ctx context.Context, email model.Email) (*model.User, error) {
	const q = `
SELECT email, password_hash, requires_2fa, created_at
FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email.Expose()))
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, email model.Email, newHash string) error {
	const q = `
UPDATE users
SET password_hash = $1
WHERE email = $2`
	tag, err := r.db.Pool.Exec(ctx, q, newHash, email.Expose())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Validate selects the user and verifies the password attempt against the
// stored hash.
func (r *UserRepo) Validate(ctx context.Context, email model.Email, password model.Password) (*model.User, error) {
	user, err := r.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := r.hasher.Verify(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		rawEmail string
		user     model.User
	)
	if err := row.Scan(&rawEmail, &user.PasswordHash, &user.Requires2FA, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	email, err := model.ParseEmail(rawEmail)
	if err != nil {
		return nil, fmt.Errorf("stored email: %w", err)
	}
	user.Email = email
	return &user, nil
}
