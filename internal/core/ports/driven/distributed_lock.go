package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates one-off work across instances sharing the same
// index location. The index build holds a lock so concurrent starts do not
// embed the corpus twice.
type DistributedLock interface {
	// Acquire attempts to take the named lock for ttl.
	// Returns false, nil when another holder owns the lock.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release gives up the named lock.
	// Safe to call when the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend pushes back the expiry of a held lock.
	// Backends without expiry treat this as a holder check.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
