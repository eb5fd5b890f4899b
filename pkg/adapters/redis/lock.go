package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/reflex/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLeaseLost is returned by Keep when the lock expired or changed owner.
	ErrLeaseLost = errors.New("distributed lock lost")
)

// DefaultRetry is the pause between two acquisition attempts.
const DefaultRetry = 100 * time.Millisecond

var (
	renewScript = backend.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
	releaseScript = backend.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
)

// Locker implements ports.Locker using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		retry:  DefaultRetry,
	}
}

// Locker returns a locker sharing the memory's client and key prefix.
func (m *Memory) Locker() *Locker {
	return NewLocker(m.client, m.prefix)
}

// Acquire polls until the lock for key is free, then takes it for ttl.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	lease := &Lease{
		client: l.client,
		key:    l.prefix + "lock:" + key,
		value:  uuid.NewString(),
		ttl:    ttl,
	}

	for {
		ok, err := l.client.SetNX(ctx, lease.key, lease.value, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return lease, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// Lease is a lock held in Redis. The value is unique per holder, so renew and
// release never touch a lock taken over by someone else.
type Lease struct {
	client *backend.Client
	key    string
	value  string
	ttl    time.Duration
}

// Keep renews the lease every third of its TTL.
func (l *Lease) Keep(ctx context.Context) error {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.value, l.ttl.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("redis error renewing lock: %w", err)
			}
			if n == 0 {
				return ErrLeaseLost
			}
		}
	}
}

// Release deletes the lock if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err()
}
