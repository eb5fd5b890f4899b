package ports

import (
	"context"
	"time"
)

// Locker grants exclusive, expiring leases on a named resource.
// Engines sharing a Memory backend use it so only one of them drives the robot.
type Locker interface {
	// Acquire blocks until the lease is granted or ctx is done.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock.
type Lease interface {
	// Keep renews the lease until ctx is done. It returns an error once the
	// lease has been lost to expiry or another holder.
	Keep(ctx context.Context) error
	// Release gives the lease up if it is still held.
	Release(ctx context.Context) error
}
