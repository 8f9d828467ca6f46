package memory

import (
	"context"
	"sync"

	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

// ResetTokenStore keeps at most one pending password-reset token per email.
type ResetTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewResetTokenStore constructs an empty reset-token store.
func NewResetTokenStore() *ResetTokenStore {
	return &ResetTokenStore{tokens: make(map[string]string)}
}

// Add stores the token, overwriting any prior pending reset for email.
func (s *ResetTokenStore) Add(_ context.Context, email model.Email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[email.Expose()] = token
	return nil
}

// Get returns the pending reset token for email.
func (s *ResetTokenStore) Get(_ context.Context, email model.Email) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[email.Expose()]
	if !ok {
		return "", errs.ErrNotFound
	}
	return token, nil
}

// Remove consumes the pending reset token for email.
func (s *ResetTokenStore) Remove(_ context.Context, email model.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Expose()
	if _, ok := s.tokens[key]; !ok {
		return errs.ErrNotFound
	}
	delete(s.tokens, key)
	return nil
}
