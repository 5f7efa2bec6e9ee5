// Package locallock implements the build lock with lock files, for
// instances that share a filesystem but no Redis or Postgres.
package locallock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

// corruptGrace is how long an unparsable lock file is honoured.
const corruptGrace = time.Minute

type lockFile struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock links <dir>/<name>.lock into place exclusively. A lock file whose
// expiry has passed is treated as abandoned and may be taken over.
type Lock struct {
	dir   string
	owner string
	now   func() time.Time

	mu sync.Mutex
}

// New creates a file lock that keeps lock files in dir.
func New(dir string) *Lock {
	return &Lock{
		dir:   dir,
		owner: uuid.NewString(),
		now:   time.Now,
	}
}

func (l *Lock) path(name string) string {
	return filepath.Join(l.dir, name+".lock")
}

// Acquire creates the lock file, taking over an expired one.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		created, err := l.create(name, ttl)
		if err != nil {
			return false, err
		}
		if created {
			return true, nil
		}

		current, err := l.read(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return false, err
		}
		if l.now().Before(current.expiresAt()) {
			return false, nil
		}
		if err := l.evict(name, current); err != nil {
			return false, err
		}
	}
	return false, nil
}

// create writes the lock to a private file and links it into place, so the
// lock path never holds partial content. Link fails if the lock exists.
func (l *Lock) create(name string, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(lockFile{Owner: l.owner, ExpiresAt: l.now().Add(ttl)})
	if err != nil {
		return false, err
	}

	tmp := l.path(name) + "." + l.owner + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, fmt.Errorf("write lock %s: %w", name, err)
	}
	defer os.Remove(tmp)

	err = os.Link(tmp, l.path(name))
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock %s: %w", name, err)
	}
	return true, nil
}

// evict moves an expired lock aside. If the file changed since seen was read,
// another instance took the lock meanwhile and it is put back.
func (l *Lock) evict(name string, seen *lockState) error {
	stale := l.path(name) + "." + l.owner + ".stale"
	if err := os.Rename(l.path(name), stale); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove expired lock %s: %w", name, err)
	}

	data, err := os.ReadFile(stale)
	if err == nil && !bytes.Equal(data, seen.raw) {
		_ = os.Link(stale, l.path(name))
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove expired lock %s: %w", name, err)
	}
	return nil
}

// lockState is a lock file as read from disk.
type lockState struct {
	file    lockFile
	raw     []byte
	corrupt bool
	modTime time.Time
}

// expiresAt is the recorded expiry. Unparsable content is held for
// corruptGrace after its last write.
func (s *lockState) expiresAt() time.Time {
	if s.corrupt {
		return s.modTime.Add(corruptGrace)
	}
	return s.file.ExpiresAt
}

func (l *Lock) read(name string) (*lockState, error) {
	path := l.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	state := &lockState{raw: data, modTime: info.ModTime()}
	if err := json.Unmarshal(data, &state.file); err != nil {
		state.corrupt = true
	}
	return state, nil
}

// Release removes the lock file if this instance owns it.
func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.read(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if current.file.Owner != l.owner {
		return nil
	}
	if err := os.Remove(l.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend rewrites the expiry of a lock this instance owns.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.read(name)
	if errors.Is(err, os.ErrNotExist) || (err == nil && current.file.Owner != l.owner) {
		return fmt.Errorf("%w: %s is not held by this instance", domain.ErrLockNotAcquired, name)
	}
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}

	data, err := json.Marshal(lockFile{Owner: l.owner, ExpiresAt: l.now().Add(ttl)})
	if err != nil {
		return err
	}
	tmp := l.path(name) + "." + l.owner + ".extend"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	return os.Rename(tmp, l.path(name))
}

// Ping checks the lock directory is writable.
func (l *Lock) Ping(ctx context.Context) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("lock directory unavailable: %w", err)
	}
	return nil
}
