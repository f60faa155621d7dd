package contentstore

import (
	"context"
	"slices"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// rawPrefix produces CIDv1 over the raw bytes with a sha2-256 multihash.
var rawPrefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// ComputeCID returns the CID MemoryStore assigns to data.
func ComputeCID(data []byte) (cid.Cid, error) {
	return rawPrefix.Sum(data)
}

// MemoryStore is an in-process BlobStore for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, unavailable("upload", "", "context done", err, false)
	}
	id, err := ComputeCID(data)
	if err != nil {
		return cid.Undef, malformed("upload", "", "hash content", err)
	}
	s.mu.Lock()
	s.blobs[id.KeyString()] = slices.Clone(data)
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("fetch", id.String(), "context done", err, false)
	}
	s.mu.RLock()
	data, ok := s.blobs[id.KeyString()]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound("fetch", id.String())
	}
	return slices.Clone(data), nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
