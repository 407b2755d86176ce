package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ticket-manager/internal/status"
)

// Locker serializes mutations of a single ticket. The returned unlock func
// must be called once the write is done.
type Locker interface {
	Lock(ctx context.Context, ticketID string) (unlock func(), err error)
}

// NoopLocker keeps plain last-write-wins behaviour.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

const (
	defaultLockRetries    = 10
	defaultLockRetryDelay = 50 * time.Millisecond
)

// RedisLocker takes a SET NX PX lock per ticket id.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
	token      func() (string, error)
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:     client,
		ttl:        ttl,
		retries:    defaultLockRetries,
		retryDelay: defaultLockRetryDelay,
		token:      func() (string, error) { return uuid.New().String(), nil },
	}
}

func lockKey(ticketID string) string {
	return fmt.Sprintf("lock:ticket:%s", ticketID)
}

func (l *RedisLocker) Lock(ctx context.Context, ticketID string) (func(), error) {
	token, err := l.token()
	if err != nil {
		return nil, err
	}
	key := lockKey(ticketID)

	for attempt := 0; attempt < l.retries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, status.ErrTicketBusy
}

func (l *RedisLocker) release(key, token string) {
	// the request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release ticket lock")
	}
}
