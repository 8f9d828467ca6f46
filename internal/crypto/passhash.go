// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/markmcclatchy/auth-service/internal/model"
)

const phcPrefix = "$argon2id$"

var (
	// ErrMismatch indicates the attempt does not match the stored hash.
	// This is an authentication failure, not a data-integrity one.
	ErrMismatch = errors.New("password mismatch")

	// ErrMalformedHash indicates the stored hash could not be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Params are the Argon2id cost parameters. They are embedded in every
// produced hash, so verification always uses the parameters the hash was
// created with.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the reference deployment.
func DefaultParams() Params {
	return Params{
		Memory:      15000,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher computes and verifies Argon2id password hashes in PHC string
// format. Both operations run on a bounded worker pool so a CPU-bound hash
// never runs inline on a request goroutine; pool acquisition honors ctx.
type Hasher struct {
	params Params
	sem    chan struct{}
}

// NewHasher constructs a Hasher. workers bounds concurrent hash
// computations; values <= 0 default to GOMAXPROCS.
func NewHasher(params Params, workers int) *Hasher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Hasher{params: params, sem: make(chan struct{}, workers)}
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hash derives a PHC-encoded Argon2id hash of password with a fresh salt.
func (h *Hasher) Hash(ctx context.Context, password model.Password) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	salt, err := RandBytes(int(h.params.SaltLength))
	if err != nil {
		return "", err
	}
	digest := argon2.IDKey(
		[]byte(password.Expose()),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)
	return fmt.Sprintf(
		"%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the hash of attempt with the parameters embedded in
// encodedHash and compares in constant time. It returns nil on match,
// ErrMismatch on a wrong password, and ErrMalformedHash when the stored
// hash cannot be parsed.
func (h *Hasher) Verify(ctx context.Context, encodedHash string, attempt model.Password) error {
	phc, err := decodePHC(encodedHash)
	if err != nil {
		return err
	}

	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()

	computed := argon2.IDKey(
		[]byte(attempt.Expose()),
		phc.salt,
		phc.time,
		phc.memory,
		phc.parallelism,
		uint32(len(phc.digest)),
	)
	if subtle.ConstantTimeCompare(computed, phc.digest) != 1 {
		return ErrMismatch
	}
	return nil
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() { <-h.sem }

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	digest      []byte
}

func decodePHC(encoded string) (*parsedPHC, error) {
	if !strings.HasPrefix(encoded, phcPrefix) {
		return nil, ErrMalformedHash
	}
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, digest
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrMalformedHash
	}

	var phc parsedPHC
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &phc.memory, &phc.time, &phc.parallelism); err != nil {
		return nil, ErrMalformedHash
	}
	if phc.memory == 0 || phc.time == 0 || phc.parallelism == 0 {
		return nil, ErrMalformedHash
	}

	var err error
	phc.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(phc.salt) == 0 {
		return nil, ErrMalformedHash
	}
	phc.digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(phc.digest) == 0 {
		return nil, ErrMalformedHash
	}
	return &phc, nil
}
