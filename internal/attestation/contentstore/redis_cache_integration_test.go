//go:build integration

package contentstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/pkg/testutil/containers"
)

func TestRedisCacheIntegration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	cache := NewRedisCache(rc.Client, time.Minute)

	_, ok, err := cache.Get(ctx, "bafkmissing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "bafkpresent", []byte(`{"verifications":{}}`)))
	data, ok, err := cache.Get(ctx, "bafkpresent")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"verifications":{}}`, string(data))

	ttl, err := rc.Client.TTL(ctx, documentKeyPrefix+"bafkpresent").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestCachedStoreWithRedisIntegration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	upstream := &countingBlobs{MemoryStore: NewMemoryStore()}
	id, err := upstream.MemoryStore.Put(ctx, []byte(`{"shared":true}`))
	require.NoError(t, err)

	first, err := NewCachedStore(upstream, 4, WithRemoteCache(NewRedisCache(rc.Client, time.Minute)))
	require.NoError(t, err)
	_, err = first.Get(ctx, id)
	require.NoError(t, err)

	// a second instance with a cold local cache reads from Redis
	second, err := NewCachedStore(upstream, 4, WithRemoteCache(NewRedisCache(rc.Client, time.Minute)))
	require.NoError(t, err)
	_, err = second.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int32(1), upstream.gets.Load())
}
