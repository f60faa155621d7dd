package contentstore

import (
	"context"
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ipfs/go-cid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keystone_content_cache_lookups_total",
	Help: "Content store cache lookups by tier and result",
}, []string{"tier", "result"})

// RemoteCache is a shared second-level cache.
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// CachedStore decorates a BlobStore with a read-through cache. Content under a
// CID never changes, so entries need no invalidation. Concurrent misses for the
// same CID share one upstream fetch.
type CachedStore struct {
	next   BlobStore
	local  *lru.Cache[string, []byte]
	remote RemoteCache
	group  singleflight.Group
	logger *slog.Logger
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

func WithRemoteCache(rc RemoteCache) CacheOption {
	return func(s *CachedStore) { s.remote = rc }
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(s *CachedStore) { s.logger = logger }
}

// NewCachedStore keeps up to size documents in process memory.
func NewCachedStore(next BlobStore, size int, opts ...CacheOption) (*CachedStore, error) {
	local, err := lru.New[string, []byte](max(size, 1))
	if err != nil {
		return nil, err
	}
	s := &CachedStore{next: next, local: local, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put stores through and warms the caches with what was written.
func (s *CachedStore) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := s.next.Put(ctx, data)
	if err != nil {
		return id, err
	}
	s.fill(ctx, id.String(), data)
	return id, nil
}

func (s *CachedStore) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	key := id.String()
	if data, ok := s.local.Get(key); ok {
		cacheLookups.WithLabelValues("local", "hit").Inc()
		return slices.Clone(data), nil
	}
	cacheLookups.WithLabelValues("local", "miss").Inc()

	ch := s.group.DoChan(key, func() (any, error) {
		// detached so one caller giving up does not fail the others
		fetchCtx := context.WithoutCancel(ctx)
		if s.remote != nil {
			data, ok, err := s.remote.Get(fetchCtx, key)
			switch {
			case err != nil:
				s.logger.WarnContext(ctx, "remote cache read failed", "cid", key, "error", err)
			case ok:
				cacheLookups.WithLabelValues("remote", "hit").Inc()
				s.local.Add(key, data)
				return data, nil
			default:
				cacheLookups.WithLabelValues("remote", "miss").Inc()
			}
		}
		data, err := s.next.Get(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		s.fill(fetchCtx, key, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, unavailable("fetch", key, "context done", ctx.Err(), false)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]byte)), nil
	}
}

func (s *CachedStore) fill(ctx context.Context, key string, data []byte) {
	s.local.Add(key, slices.Clone(data))
	if s.remote == nil {
		return
	}
	if err := s.remote.Set(ctx, key, data); err != nil {
		s.logger.WarnContext(ctx, "remote cache write failed", "cid", key, "error", err)
	}
}
