// Distributed lock for scheduled jobs.
//
// The lock is modeled as an explicit capability: Acquire returns a
// *Lock handle (or ErrLockNotAcquired), and the handle's Release is
// called in a deferred block on every exit path. It protects job
// execution across service instances, not individual key access.
//
// Implementation: SET key token NX PX hold. The token is a random UUID;
// Release deletes the key only while it still holds our token (Lua
// compare-and-delete), so a lock that expired mid-run and was taken by
// another instance is never released out from under it.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockNotAcquired signals that another holder owns the lock. It is a
// normal outcome for single-flight jobs, not an error condition.
var ErrLockNotAcquired = errors.New("lock already held")

// acquirePollInterval is how often Acquire retries SETNX while waiting.
const acquirePollInterval = 100 * time.Millisecond

// releaseScript deletes the lock key only when it still carries the
// caller's token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

// Locker hands out named distributed locks backed by Redis.
type Locker struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewLocker constructs a Locker. timeout bounds each Redis round trip,
// independent of the lock's wait and hold durations.
func NewLocker(rdb *redis.Client, timeout time.Duration) *Locker {
	return &Locker{rdb: rdb, timeout: timeout}
}

// Lock is a held lock handle. Release it exactly once.
type Lock struct {
	locker *Locker
	name   string
	token  string
}

// Acquire tries to take the named lock, polling for up to wait. The
// lock auto-expires after hold so a crashed holder cannot wedge the
// schedule. Returns ErrLockNotAcquired when the wait budget runs out
// with the lock still held elsewhere.
func (l *Locker) Acquire(ctx context.Context, name string, wait, hold time.Duration) (*Lock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		cctx, cancel := withTimeout(ctx, l.timeout)
		ok, err := l.rdb.SetNX(cctx, name, token, hold).Result()
		cancel()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Lock{locker: l, name: name, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
	}
}

// Release frees the lock if this handle still owns it. Releasing an
// expired or stolen lock is a no-op.
func (h *Lock) Release(ctx context.Context) error {
	cctx, cancel := withTimeout(ctx, h.locker.timeout)
	defer cancel()

	return releaseScript.Run(cctx, h.locker.rdb, []string{h.name}, h.token).Err()
}
