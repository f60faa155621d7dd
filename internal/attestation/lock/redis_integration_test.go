//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/pkg/platform/sentinel"
	"keystone/pkg/testutil/containers"
)

func TestRedisLockerIntegration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	first := NewRedisLocker(rc.Client, time.Minute, WithRetryInterval(5*time.Millisecond, 20*time.Millisecond))
	second := NewRedisLocker(rc.Client, time.Minute, WithRetryInterval(5*time.Millisecond, 20*time.Millisecond))

	t.Run("second instance waits for the holder", func(t *testing.T) {
		unlock, err := first.Lock(ctx, addrA)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = second.Lock(waitCtx, addrA)
		assert.ErrorIs(t, err, sentinel.ErrLocked)

		unlock()
		unlock2, err := second.Lock(ctx, addrA)
		require.NoError(t, err)
		unlock2()
	})

	t.Run("other addresses are independent", func(t *testing.T) {
		unlockA, err := first.Lock(ctx, addrA)
		require.NoError(t, err)
		defer unlockA()

		unlockB, err := second.Lock(ctx, addrB)
		require.NoError(t, err)
		unlockB()
	})

	t.Run("lease outlives its ttl while held", func(t *testing.T) {
		short := NewRedisLocker(rc.Client, 150*time.Millisecond, WithRenewInterval(30*time.Millisecond))
		unlock, err := short.Lock(ctx, addrA)
		require.NoError(t, err)

		time.Sleep(500 * time.Millisecond)
		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = second.Lock(waitCtx, addrA)
		assert.ErrorIs(t, err, sentinel.ErrLocked)

		unlock()
		exists, err := rc.Client.Exists(ctx, keyPrefix+addrA.String()).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("a taken-over lease is neither renewed nor released", func(t *testing.T) {
		short := NewRedisLocker(rc.Client, time.Second, WithRenewInterval(20*time.Millisecond))
		staleUnlock, err := short.Lock(ctx, addrB)
		require.NoError(t, err)

		key := keyPrefix + addrB.String()
		require.NoError(t, rc.Client.Set(ctx, key, "other-instance", 200*time.Millisecond).Err())
		time.Sleep(100 * time.Millisecond)

		ttl, err := rc.Client.PTTL(ctx, key).Result()
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, 200*time.Millisecond)

		staleUnlock()
		owner, err := rc.Client.Get(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, "other-instance", owner)
	})
}
