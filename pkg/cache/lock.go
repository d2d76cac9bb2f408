package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock already held")

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock is a named mutual-exclusion lease. With a Redis client it is shared
// across processes via SET NX; without one it degrades to an in-process mutex.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu   sync.Mutex
	held bool
}

// NewLock builds a lock stored under key with the given lease duration.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lock without waiting and returns the function that releases it.
func (l *Lock) Acquire(ctx context.Context) (func(), error) {
	l.mu.Lock()
	if l.held {
		l.mu.Unlock()
		return nil, ErrLockHeld
	}
	l.held = true
	l.mu.Unlock()

	if l.client == nil {
		return l.releaseLocal, nil
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		l.releaseLocal()
		return nil, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		l.releaseLocal()
		return nil, ErrLockHeld
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
		l.releaseLocal()
	}, nil
}

func (l *Lock) releaseLocal() {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}
