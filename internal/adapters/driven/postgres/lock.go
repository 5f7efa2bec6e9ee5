package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL session advisory locks.
//
// Advisory locks belong to a database session, so each held lock pins one
// connection from the pool until Release. The ttl argument is ignored: the
// lock lasts until released or until the session ends, which also covers a
// crashed holder.
type AdvisoryLock struct {
	db     *DB
	prefix string

	mu   sync.Mutex
	held map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB, prefix string) *AdvisoryLock {
	if prefix == "" {
		prefix = "schemarag:lock:"
	}
	return &AdvisoryLock{
		db:     db,
		prefix: prefix,
		held:   make(map[string]*sql.Conn),
	}
}

// lockKey maps a lock name to the 64-bit advisory lock key (FNV-1a).
func (l *AdvisoryLock) lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(l.prefix + name))
	return int64(h.Sum64())
}

// Acquire tries pg_try_advisory_lock on a dedicated connection.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockKey(name)).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.held[name] = conn
	return true, nil
}

// Release unlocks on the pinned connection and returns it to the pool.
// Safe to call when the lock is not held.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockKey(name)).Scan(&released); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend checks that the lock is still held; advisory locks do not expire.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	conn, ok := l.held[name]
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s is not held by this instance", domain.ErrLockNotAcquired, name)
	}
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: session for %s lost: %v", domain.ErrLockNotAcquired, name, err)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
