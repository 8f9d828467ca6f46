package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

// twoFATuple is the wire form of a pending challenge: [attemptID, code].
type twoFATuple [2]string

// TwoFACodeStore keeps pending second-factor challenges in Redis with a
// native TTL, one per email (SET overwrites).
type TwoFACodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTwoFACodeStore constructs a Redis-backed challenge store. ttl bounds
// how long a challenge stays pending (10 minutes in reference config).
func NewTwoFACodeStore(rdb *redis.Client, ttl time.Duration) *TwoFACodeStore {
	return &TwoFACodeStore{rdb: rdb, ttl: ttl}
}

// Add stores the challenge, overwriting any prior one for email.
func (s *TwoFACodeStore) Add(ctx context.Context, email model.Email, attemptID model.LoginAttemptID, code model.TwoFACode) error {
	payload, err := json.Marshal(twoFATuple{attemptID.Expose(), code.Expose()})
	if err != nil {
		return fmt.Errorf("encode two-fa tuple: %w", err)
	}
	if err := s.rdb.Set(ctx, twoFACodeKeyPrefix+email.Expose(), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis add two-fa code: %w", err)
	}
	return nil
}

// Get returns the pending challenge for email.
func (s *TwoFACodeStore) Get(ctx context.Context, email model.Email) (model.LoginAttemptID, model.TwoFACode, error) {
	raw, err := s.rdb.Get(ctx, twoFACodeKeyPrefix+email.Expose()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.LoginAttemptID{}, model.TwoFACode{}, errs.ErrNotFound
		}
		return model.LoginAttemptID{}, model.TwoFACode{}, fmt.Errorf("redis get two-fa code: %w", err)
	}

	var tuple twoFATuple
	if err := json.Unmarshal([]byte(raw), &tuple); err != nil {
		return model.LoginAttemptID{}, model.TwoFACode{}, fmt.Errorf("decode two-fa tuple: %w", err)
	}
	attemptID, err := model.ParseLoginAttemptID(tuple[0])
	if err != nil {
		return model.LoginAttemptID{}, model.TwoFACode{}, fmt.Errorf("stored attempt id: %w", err)
	}
	code, err := model.ParseTwoFACode(tuple[1])
	if err != nil {
		return model.LoginAttemptID{}, model.TwoFACode{}, fmt.Errorf("stored two-fa code: %w", err)
	}
	return attemptID, code, nil
}

// Remove consumes the pending challenge for email.
func (s *TwoFACodeStore) Remove(ctx context.Context, email model.Email) error {
	n, err := s.rdb.Del(ctx, twoFACodeKeyPrefix+email.Expose()).Result()
	if err != nil {
		return fmt.Errorf("redis remove two-fa code: %w", err)
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
