package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// Redis lock
// ============================================================================
//
// Acquire:  SET key owner NX PX ttl
// Release:  delete the key only if it still holds our owner token, in one
//           Lua script, so a lock that expired and was taken by someone else
//           is left alone.
//
// ============================================================================

var ErrLockFailed = errors.New("failed to acquire lock")

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

type DistributedLock struct {
	client     redis.Cmdable
	key        string
	owner      string
	expiration time.Duration
}

func NewDistributedLock(client redis.Cmdable, key, owner string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		owner:      owner,
		expiration: expiration,
	}
}

func (l *DistributedLock) Key() string {
	return l.key
}

// Acquire tries once and does not wait.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.owner, l.expiration).Result()
}

// AcquireWait retries every retryInterval, up to maxRetries attempts.
func (l *DistributedLock) AcquireWait(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		ok, err := l.Acquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Release reports whether this owner still held the lock.
func (l *DistributedLock) Release(ctx context.Context) (bool, error) {
	n, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.owner).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// NewDailyResetLock guards the once-a-day counter reset across instances.
// day should be a key-safe date such as 2025-01-31.
func NewDailyResetLock(client redis.Cmdable, prefix, day, owner string, ttl time.Duration) *DistributedLock {
	return NewDistributedLock(client, prefix+"lock:daily_reset:"+day, owner, ttl)
}
