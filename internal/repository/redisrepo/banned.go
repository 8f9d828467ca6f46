// Package redisrepo contains Redis implementations of the ephemeral
// repository interfaces (revocations, 2FA challenges, pending resets).
// A single key namespace hosts all three stores, separated by key prefix,
// and every write sets a native TTL so records self-expire without sweeps.
package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markmcclatchy/auth-service/internal/errs"
)

// Key prefixes per capability.
const (
	bannedTokenKeyPrefix   = "banned_token:"
	twoFACodeKeyPrefix     = "two_fa_code:"
	passwordResetKeyPrefix = "password_reset:"
)

// BannedTokenStore records revoked tokens in Redis, keyed by the exact
// token string, expiring together with the token itself.
type BannedTokenStore struct {
	rdb *redis.Client
}

// NewBannedTokenStore constructs a Redis-backed revocation store.
func NewBannedTokenStore(rdb *redis.Client) *BannedTokenStore {
	return &BannedTokenStore{rdb: rdb}
}

// Add bans the token until expiresAt. A token already past its expiry needs
// no ban record; structural validation rejects it anyway.
func (s *BannedTokenStore) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, bannedTokenKeyPrefix+token, true, ttl).Err(); err != nil {
		return fmt.Errorf("redis ban token: %w", err)
	}
	return nil
}

// Check returns errs.ErrBannedToken when a ban record exists.
func (s *BannedTokenStore) Check(ctx context.Context, token string) error {
	n, err := s.rdb.Exists(ctx, bannedTokenKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("redis check token: %w", err)
	}
	if n > 0 {
		return errs.ErrBannedToken
	}
	return nil
}
