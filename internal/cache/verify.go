// Signup email verification codes.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCodeNotFound is returned when no verification code is stored for
// the email (never issued, or expired).
var ErrCodeNotFound = errors.New("verification code not found")

// VerifyStore keeps short-lived signup verification codes keyed by
// email address.
type VerifyStore struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewVerifyStore constructs a VerifyStore.
func NewVerifyStore(rdb *redis.Client, timeout time.Duration) *VerifyStore {
	return &VerifyStore{rdb: rdb, timeout: timeout}
}

func verifyKey(email string) string { return "verify:" + email }

// SaveCode stores the code for email with the given TTL, replacing any
// previous code.
func (s *VerifyStore) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.rdb.Set(cctx, verifyKey(email), code, ttl).Err()
}

// Code returns the stored code for email, or ErrCodeNotFound.
func (s *VerifyStore) Code(ctx context.Context, email string) (string, error) {
	cctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	code, err := s.rdb.Get(cctx, verifyKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	return code, err
}
