package locallock

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

func TestLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	first := New(dir)
	second := New(dir)

	acquired, err := first.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = second.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, second.Release(ctx, "index-build"))
	assert.FileExists(t, filepath.Join(dir, "index-build.lock"))

	require.NoError(t, first.Release(ctx, "index-build"))
	assert.NoFileExists(t, filepath.Join(dir, "index-build.lock"))

	acquired, err = second.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLock_ExpiredLockIsTakenOver(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	first := New(dir)
	first.now = func() time.Time { return clock }
	second := New(dir)
	second.now = func() time.Time { return clock.Add(2 * time.Minute) }

	_, err := first.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)

	acquired, err := second.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	assert.ErrorIs(t, first.Extend(ctx, "index-build", time.Minute), domain.ErrLockNotAcquired)
}

func TestLock_CorruptFileIsHeldUntilGrace(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index-build.lock"), []byte("{"), 0o644))

	acquired, err := New(dir).Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "unreadable lock may belong to a live builder")

	later := New(dir)
	later.now = func() time.Time { return time.Now().Add(2 * corruptGrace) }
	acquired, err = later.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLock_LeavesOnlyTheLockFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	lock := New(dir)

	acquired, err := lock.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = New(dir).Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	require.False(t, acquired)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index-build.lock", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "index-build.lock"))
	require.NoError(t, err)
	var lf lockFile
	require.NoError(t, json.Unmarshal(data, &lf), "lock content is complete once visible")
	assert.Equal(t, lock.owner, lf.Owner)
}

func TestLock_EvictRestoresReplacedLock(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	expired := New(dir)
	expired.now = func() time.Time { return clock }
	_, err := expired.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)

	late := New(dir)
	late.now = func() time.Time { return clock.Add(2 * time.Minute) }
	seen, err := late.read("index-build")
	require.NoError(t, err)

	// Another instance takes over between the read and the eviction.
	winner := New(dir)
	winner.now = late.now
	require.NoError(t, os.Remove(filepath.Join(dir, "index-build.lock")))
	acquired, err := winner.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, late.evict("index-build", seen))

	current, err := late.read("index-build")
	require.NoError(t, err)
	assert.Equal(t, winner.owner, current.file.Owner)
	assert.NoError(t, winner.Extend(ctx, "index-build", time.Minute))
}

func TestLock_Extend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lock := New(dir)
	lock.now = func() time.Time { return clock }

	_, err := lock.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)

	clock = clock.Add(50 * time.Second)
	require.NoError(t, lock.Extend(ctx, "index-build", time.Minute))

	other := New(dir)
	other.now = func() time.Time { return clock.Add(30 * time.Second) }
	acquired, err := other.Acquire(ctx, "index-build", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "extended lock should still be held")
}

func TestLock_ExtendNotHeld(t *testing.T) {
	err := New(t.TempDir()).Extend(context.Background(), "index-build", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
}

func TestLock_Ping(t *testing.T) {
	assert.NoError(t, New(filepath.Join(t.TempDir(), "locks")).Ping(context.Background()))
}
