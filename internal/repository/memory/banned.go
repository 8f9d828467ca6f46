package memory

import (
	"context"
	"sync"
	"time"

	"github.com/markmcclatchy/auth-service/internal/errs"
)

// BannedTokenStore records revoked tokens with their original expiry.
// It has no background sweeper; callers may invoke SweepExpired to drop
// entries whose tokens have expired anyway.
type BannedTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

// NewBannedTokenStore constructs an empty revocation store.
func NewBannedTokenStore() *BannedTokenStore {
	return &BannedTokenStore{tokens: make(map[string]time.Time)}
}

// Add bans the exact token string until expiresAt.
func (s *BannedTokenStore) Add(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = expiresAt
	return nil
}

// Check returns errs.ErrBannedToken when the token has been revoked.
func (s *BannedTokenStore) Check(_ context.Context, token string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, banned := s.tokens[token]; banned {
		return errs.ErrBannedToken
	}
	return nil
}

// SweepExpired removes entries whose recorded expiry has passed and returns
// how many were dropped. An expired token fails structural validation on its
// own, so keeping its ban record is pointless.
func (s *BannedTokenStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for token, expiresAt := range s.tokens {
		if now.After(expiresAt) {
			delete(s.tokens, token)
			dropped++
		}
	}
	return dropped
}
