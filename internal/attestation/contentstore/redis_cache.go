package contentstore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var redisCacheDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "keystone_content_redis_cache_duration_ms",
	Help:    "Latency of content cache operations against Redis in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
}, []string{"op"})

const documentKeyPrefix = "keystone:doc:"

// RedisCache shares fetched documents across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache stores entries for ttl; zero keeps them until evicted by Redis.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	defer observeMs("get", start)

	data, err := c.client.Get(ctx, documentKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	defer observeMs("set", start)
	return c.client.Set(ctx, documentKeyPrefix+key, data, c.ttl).Err()
}

func observeMs(op string, start time.Time) {
	redisCacheDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
