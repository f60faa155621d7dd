package memory

import (
	"context"
	"slices"
	"sync"

	"keystone/internal/activity/models"
	"keystone/pkg/domain"
)

// DefaultPerWallet bounds how many entries are kept for one wallet.
const DefaultPerWallet = 200

// InMemoryStore keeps the most recent entries per wallet. Oldest entries are
// dropped once a wallet exceeds its cap.
type InMemoryStore struct {
	mu        sync.RWMutex
	entries   map[domain.WalletAddress][]models.Activity
	perWallet int
}

func NewInMemoryStore(perWallet int) *InMemoryStore {
	if perWallet <= 0 {
		perWallet = DefaultPerWallet
	}
	return &InMemoryStore{
		entries:   make(map[domain.WalletAddress][]models.Activity),
		perWallet: perWallet,
	}
}

func (s *InMemoryStore) Append(_ context.Context, a models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.entries[a.WalletAddress], a)
	if over := len(list) - s.perWallet; over > 0 {
		list = slices.Clone(list[over:])
	}
	s.entries[a.WalletAddress] = list
	return nil
}

// ListByWallet returns up to limit entries, newest first. limit <= 0 means all.
func (s *InMemoryStore) ListByWallet(_ context.Context, addr domain.WalletAddress, limit int) ([]models.Activity, error) {
	s.mu.RLock()
	out := slices.Clone(s.entries[addr])
	s.mu.RUnlock()

	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b models.Activity) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
