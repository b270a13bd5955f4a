package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// lockKeyPrefix is the Redis key prefix for snapshot export locks.
	lockKeyPrefix = "lock:snapshot:"
	// lockPollInterval is how often a blocked Lock retries acquisition.
	lockPollInterval = 50 * time.Millisecond
	// unlockTimeout bounds the release call, which runs after the caller's
	// context may already be cancelled.
	unlockTimeout = 2 * time.Second
)

// ErrLockNotAcquired is returned when a lock could not be taken before the
// context ended.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker serializes work on a key. Unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), error)
}

// SnapshotLockKey returns the lock key for one entity's snapshot.
func SnapshotLockKey(kind, uuid string) string {
	return lockKeyPrefix + kind + ":" + uuid
}

// releaseScript deletes the lock only if it still holds our token, so an
// expired lease re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker is a lease-based distributed lock. A lease expires after ttl so
// a crashed holder cannot block other exporters forever.
type RedisLocker struct {
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a RedisLocker using the cache's client.
func NewRedisLocker(c *Cache, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		cache:  c,
		ttl:    ttl,
		logger: logger.With("component", "cache.lock"),
	}
}

// Lock blocks until the key is acquired or ctx ends. The key is stored
// inside the cache namespace.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = l.cache.Key(key)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.cache.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
			defer cancel()
			if err := releaseScript.Run(ctx, l.cache.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
			}
		})
	}
	return unlock, nil
}

// LocalLocker serializes work within one process. It is used when no Redis is
// configured.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

// Lock blocks until the key is acquired or ctx ends.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lk)
		return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			<-lk.sem
			l.release(key, lk)
		})
	}
	return unlock, nil
}

// release drops a reference and forgets the key once nobody holds or waits
// for it.
func (l *LocalLocker) release(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports how many keys are currently tracked.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
