// Package redis coordinates index builds across instances through Redis.
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// DefaultPrefix namespaces lock keys.
const DefaultPrefix = "schemarag:lock:"

// LockConfig configures a Lock.
type LockConfig struct {
	// Prefix is prepended to every lock name. Instances that share an index
	// location must share a prefix.
	Prefix string
	Logger *slog.Logger
}

// Lock implements DistributedLock with SET NX PX and an owner token,
// so one instance never releases a lock another instance holds.
type Lock struct {
	client  *redis.Client
	prefix  string
	ownerID string
	logger  *slog.Logger
}

// NewLock creates a Redis-backed lock with a unique owner ID.
func NewLock(client *redis.Client, cfg LockConfig) *Lock {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ownerID := newOwnerID()
	return &Lock{
		client:  client,
		prefix:  prefix,
		ownerID: ownerID,
		logger:  logger.With("lock_owner", ownerID),
	}
}

// newOwnerID returns hostname:pid:random.
func newOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

func (l *Lock) key(name string) string {
	return l.prefix + name
}

// Acquire takes the lock if nobody holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if acquired {
		l.logger.Debug("lock acquired", "lock", name, "ttl", ttl)
	}
	return acquired, nil
}

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release drops the lock if this instance holds it.
func (l *Lock) Release(ctx context.Context, name string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key(name)}, l.ownerID).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if deleted == 0 {
		l.logger.Debug("lock was not held at release", "lock", name)
	}
	return nil
}

// extendScript resets the expiry only when the caller still owns the key.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Extend pushes back the expiry of a lock this instance holds.
// Returns domain.ErrLockNotAcquired when the lock expired or moved to another owner.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	extended, err := extendScript.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if extended == 0 {
		return fmt.Errorf("%w: %s is not held by this instance", domain.ErrLockNotAcquired, name)
	}
	return nil
}

// Ping checks the Redis connection.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
