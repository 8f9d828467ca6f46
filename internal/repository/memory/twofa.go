package memory

import (
	"context"
	"fmt"

	"github.com/markmcclatchy/auth-service/internal/errs"
	"github.com/markmcclatchy/auth-service/internal/model"
)

type pendingChallenge struct {
	attemptID model.LoginAttemptID
	code      model.TwoFACode
}

// TwoFACodeStore keeps at most one pending challenge per email. Its lock is
// a channel semaphore so acquisition can be abandoned when the caller's
// context expires; the verify flow bounds acquisition with a timeout.
type TwoFACodeStore struct {
	lock  chan struct{}
	codes map[string]pendingChallenge
}

// NewTwoFACodeStore constructs an empty challenge store.
func NewTwoFACodeStore() *TwoFACodeStore {
	return &TwoFACodeStore{
		lock:  make(chan struct{}, 1),
		codes: make(map[string]pendingChallenge),
	}
}

func (s *TwoFACodeStore) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquire two-fa store lock: %w", ctx.Err())
	}
}

func (s *TwoFACodeStore) release() { <-s.lock }

// Add stores a challenge, overwriting any prior pending challenge for email.
func (s *TwoFACodeStore) Add(ctx context.Context, email model.Email, attemptID model.LoginAttemptID, code model.TwoFACode) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.codes[email.Expose()] = pendingChallenge{attemptID: attemptID, code: code}
	return nil
}

// Get returns the pending challenge for email.
func (s *TwoFACodeStore) Get(ctx context.Context, email model.Email) (model.LoginAttemptID, model.TwoFACode, error) {
	if err := s.acquire(ctx); err != nil {
		return model.LoginAttemptID{}, model.TwoFACode{}, err
	}
	defer s.release()

	challenge, ok := s.codes[email.Expose()]
	if !ok {
		return model.LoginAttemptID{}, model.TwoFACode{}, errs.ErrNotFound
	}
	return challenge.attemptID, challenge.code, nil
}

// Remove consumes the pending challenge for email.
func (s *TwoFACodeStore) Remove(ctx context.Context, email model.Email) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	key := email.Expose()
	if _, ok := s.codes[key]; !ok {
		return errs.ErrNotFound
	}
	delete(s.codes, key)
	return nil
}
