package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/redis/go-redis/v9"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

const keyPrefix = "keystone:lock:"

// releaseScript deletes the key only if it still holds our token, so an expired
// lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a per-address lock shared by every instance using the same
// Redis. A held lease is extended every renewEvery, so ttl only bounds how long
// a crashed holder blocks the address.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	renewEvery time.Duration
	logger     *slog.Logger
	retry      backoff.Backoff
}

type RedisOption func(*RedisLocker)

func WithLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) { l.logger = logger }
}

// WithRetryInterval bounds the polling interval while waiting for a held lock.
func WithRetryInterval(minDelay, maxDelay time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.retry.Min = minDelay
		l.retry.Max = maxDelay
	}
}

// WithRenewInterval sets how often a held lease is extended. Defaults to ttl/3.
func WithRenewInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.renewEvery = d
		}
	}
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:     client,
		ttl:        ttl,
		renewEvery: ttl / 3,
		logger:     slog.Default(),
		retry:      backoff.Backoff{Min: 25 * time.Millisecond, Max: 500 * time.Millisecond, Factor: 2, Jitter: true},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.renewEvery <= 0 {
		l.renewEvery = time.Second
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, addr domain.WalletAddress) (func(), error) {
	start := time.Now()
	key := keyPrefix + addr.String()
	token := uuid.NewString()
	b := l.retry

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			err = fmt.Errorf("lock %s: %w: %w", addr, sentinel.ErrUnavailable, err)
			observeWait("redis", start, err)
			return nil, err
		}
		if ok {
			observeWait("redis", start, nil)
			return l.unlocker(key, token), nil
		}

		timer := time.NewTimer(b.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			err := fmt.Errorf("lock %s: %w: %w", addr, sentinel.ErrLocked, ctx.Err())
			observeWait("redis", start, err)
			return nil, err
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) func() {
	var once sync.Once
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	return func() {
		once.Do(func() {
			close(stop)
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				// the lease expires on its own
				l.logger.Warn("failed to release address lock", "key", key, "error", err)
			}
		})
	}
}

// keepAlive extends the lease until stop is closed or the lease is lost.
func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.renewEvery)
		renewed, err := renewScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			// keep trying; the lease is still valid until ttl runs out
			l.logger.Warn("failed to renew address lock", "key", key, "error", err)
		case renewed == 0:
			l.logger.Error("address lock lost before release", "key", key)
			lockLost.Inc()
			return
		}
	}
}
