package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

// ResetTokenStore keeps pending password-reset tokens in Redis with a
// native TTL, one per email.
type ResetTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResetTokenStore constructs a Redis-backed reset-token store. ttl is
// the reset-token lifetime (15 minutes in reference config).
func NewResetTokenStore(rdb *redis.Client, ttl time.Duration) *ResetTokenStore {
	return &ResetTokenStore{rdb: rdb, ttl: ttl}
}

// Add stores the token, overwriting any prior pending reset for email.
func (s *ResetTokenStore) Add(ctx context.Context, email model.Email, token string) error {
	if err := s.rdb.Set(ctx, passwordResetKeyPrefix+email.Expose(), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis add reset token: %w", err)
	}
	return nil
}

// Get returns the pending reset token for email.
func (s *ResetTokenStore) Get(ctx context.Context, email model.Email) (string, error) {
	token, err := s.rdb.Get(ctx, passwordResetKeyPrefix+email.Expose()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errs.ErrNotFound
		}
		return "", fmt.Errorf("redis get reset token: %w", err)
	}
	return token, nil
}

// Remove consumes the pending reset token for email.
func (s *ResetTokenStore) Remove(ctx context.Context, email model.Email) error {
	n, err := s.rdb.Del(ctx, passwordResetKeyPrefix+email.Expose()).Result()
	if err != nil {
		return fmt.Errorf("redis remove reset token: %w", err)
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
