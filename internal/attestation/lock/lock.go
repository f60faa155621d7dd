// Package lock serializes writes per wallet address. A wallet's composite
// document is read, merged and re-anchored as one unit; two concurrent writers
// for the same wallet would otherwise drop each other's verification.
package lock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

const DefaultShards = 64

var lockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "keystone_address_lock_wait_seconds",
	Help:    "Time spent waiting for a per-address write lock",
	Buckets: []float64{.001, .01, .1, .5, 1, 5, 30, 120},
}, []string{"backend", "outcome"})

var lockLost = promauto.NewCounter(prometheus.CounterOpts{
	Name: "keystone_address_lock_lost_total",
	Help: "Held Redis leases found expired or taken over before release",
})

func observeWait(backend string, start time.Time, err error) {
	outcome := "acquired"
	if err != nil {
		outcome = "failed"
	}
	lockWait.WithLabelValues(backend, outcome).Observe(time.Since(start).Seconds())
}

// ShardedLocker is an in-process locker. Addresses hash onto a fixed set of
// shards; two addresses sharing a shard also share the lock.
type ShardedLocker struct {
	shards []chan struct{}
}

func NewShardedLocker(n int) *ShardedLocker {
	if n <= 0 {
		n = DefaultShards
	}
	l := &ShardedLocker{shards: make([]chan struct{}, n)}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Lock blocks until the shard for addr is free or ctx is done. The returned
// unlock func is safe to call more than once.
func (l *ShardedLocker) Lock(ctx context.Context, addr domain.WalletAddress) (func(), error) {
	start := time.Now()
	shard := l.shards[l.shardFor(addr)]
	select {
	case shard <- struct{}{}:
		observeWait("memory", start, nil)
		var once sync.Once
		return func() { once.Do(func() { <-shard }) }, nil
	case <-ctx.Done():
		err := fmt.Errorf("lock %s: %w: %w", addr, sentinel.ErrLocked, ctx.Err())
		observeWait("memory", start, err)
		return nil, err
	}
}

func (l *ShardedLocker) shardFor(addr domain.WalletAddress) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(addr))
	return int(h.Sum32() % uint32(len(l.shards)))
}
