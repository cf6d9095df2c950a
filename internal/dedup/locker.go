package dedup

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
)

// Claim is a held in-flight lock.
type Claim interface {
	Release(ctx context.Context) error
}

// Locker hands out named claims with a TTL. ok is false when another holder owns the name.
type Locker interface {
	Claim(ctx context.Context, name string, ttl time.Duration) (claim Claim, ok bool, err error)
}

// RedisLocker implements Locker on top of redislock.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *redislock.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Claim(ctx context.Context, name string, ttl time.Duration) (Claim, bool, error) {
	lock, err := l.client.Obtain(ctx, name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return redisClaim{lock: lock}, true, nil
}

type redisClaim struct {
	lock *redislock.Lock
}

// Release ignores locks that already expired.
func (c redisClaim) Release(ctx context.Context) error {
	err := c.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
