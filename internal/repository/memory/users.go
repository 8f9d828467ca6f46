// Package memory contains map-backed implementations of the repository
// interfaces. Each store guards its own state with its own lock, so
// contention on one capability never blocks another. Used for tests and
// single-process deployments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/markmcclatchy/auth-service/internal/crypto"
	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

// UserStore keeps accounts in a map keyed by email.
type UserStore struct {
	mu     sync.RWMutex
	users  map[string]model.User
	hasher *crypto.Hasher
}

// NewUserStore constructs an empty user store. hasher is used by Validate.
func NewUserStore(hasher *crypto.Hasher) *UserStore {
	return &UserStore{users: make(map[string]model.User), hasher: hasher}
}

// Add inserts a new user record.
func (s *UserStore) Add(_ context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := user.Email.Expose()
	if _, exists := s.users[key]; exists {
		return errs.ErrAlreadyExists
	}
	s.users[key] = user
	return nil
}

// Get loads a user by email.
func (s *UserStore) Get(_ context.Context, email model.Email) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email.Expose()]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (s *UserStore) UpdatePassword(_ context.Context, email model.Email, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Expose()
	user, ok := s.users[key]
	if !ok {
		return errs.ErrNotFound
	}
	user.PasswordHash = newHash
	s.users[key] = user
	return nil
}

// Validate looks the user up and verifies the password attempt. The hash
// comparison runs outside the store lock.
func (s *UserStore) Validate(ctx context.Context, email model.Email, password model.Password) (*model.User, error) {
	s.mu.RLock()
	user, ok := s.users[email.Expose()]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}

	if err := s.hasher.Verify(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}
	return &user, nil
}
