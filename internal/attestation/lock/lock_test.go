package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

var (
	addrA = domain.MustWalletAddress("0x00000000000000000000000000000000000000aa")
	addrB = domain.MustWalletAddress("0x00000000000000000000000000000000000000bb")
)

func TestShardedLockerSerializesSameAddress(t *testing.T) {
	l := NewShardedLocker(8)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), addrA)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestShardedLockerTimesOutWhileHeld(t *testing.T) {
	l := NewShardedLocker(8)
	unlock, err := l.Lock(context.Background(), addrA)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, addrA)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrLocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShardedLockerUnlockIsIdempotent(t *testing.T) {
	l := NewShardedLocker(1)
	unlock, err := l.Lock(context.Background(), addrA)
	require.NoError(t, err)
	unlock()
	unlock()

	// with one shard every address shares the lock
	unlock, err = l.Lock(context.Background(), addrB)
	require.NoError(t, err)
	unlock()
}

func TestShardedLockerDefaultShards(t *testing.T) {
	assert.Len(t, NewShardedLocker(0).shards, DefaultShards)
}
