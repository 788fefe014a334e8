package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// ErrLeaseLost means the lease expired and another worker may hold the key.
var ErrLeaseLost = errors.New("cron lease lost")

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
	ExtendIfValue(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// RedisLock is a single-key lease. The TTL bounds how long a crashed
// worker can block the others.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	if key == "" {
		return nil, errors.New("lock key required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) TryLock(ctx context.Context) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{lock: l, token: token}, true, nil
}

type redisLease struct {
	lock  *RedisLock
	token string
}

// Extend restarts the lease TTL. It fails with ErrLeaseLost once the key no
// longer holds this lease's token.
func (r *redisLease) Extend(ctx context.Context) error {
	ok, err := r.lock.store.ExtendIfValue(ctx, r.lock.key, r.token, r.lock.ttl)
	if err != nil {
		return fmt.Errorf("extend %s: %w", r.lock.key, err)
	}
	if !ok {
		return ErrLeaseLost
	}
	return nil
}

// Release is a no-op when the lease already expired and someone else
// took the key.
func (r *redisLease) Release(ctx context.Context) error {
	if _, err := r.lock.store.DeleteIfValue(ctx, r.lock.key, r.token); err != nil {
		return fmt.Errorf("release %s: %w", r.lock.key, err)
	}
	return nil
}
