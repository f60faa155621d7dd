package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"slices"
	"sync"
	"time"

	"keystone/pkg/domain"
)

// MemoryLedger is an in-process registry used when no chain credentials are
// configured. Writes return random transaction hashes after an optional delay.
type MemoryLedger struct {
	mu       sync.RWMutex
	types    map[domain.WalletAddress][]domain.VerificationType
	pointers map[pointerKey]string
	revoked  map[string]bool
	consents map[pointerKey]bool
	txs      map[string]TxStatus
	delay    time.Duration
}

type pointerKey struct {
	addr  domain.WalletAddress
	vtype domain.VerificationType
}

type MemoryOption func(*MemoryLedger)

// WithDelay simulates settlement latency on writes.
func WithDelay(d time.Duration) MemoryOption {
	return func(m *MemoryLedger) { m.delay = d }
}

func NewMemoryLedger(opts ...MemoryOption) *MemoryLedger {
	m := &MemoryLedger{
		types:    make(map[domain.WalletAddress][]domain.VerificationType),
		pointers: make(map[pointerKey]string),
		revoked:  make(map[string]bool),
		consents: make(map[pointerKey]bool),
		txs:      make(map[string]TxStatus),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryLedger) ListVerificationTypes(_ context.Context, addr domain.WalletAddress) ([]domain.VerificationType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.types[addr]), nil
}

func (m *MemoryLedger) AttestationPointer(_ context.Context, addr domain.WalletAddress, t domain.VerificationType) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pointers[pointerKey{addr, t}], nil
}

func (m *MemoryLedger) IsRevoked(_ context.Context, cid string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revoked[cid], nil
}

func (m *MemoryLedger) HasConsented(_ context.Context, addr domain.WalletAddress, t domain.VerificationType) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.consents[pointerKey{addr, t}], nil
}

func (m *MemoryLedger) HasAnyValidVerification(_ context.Context, addr domain.WalletAddress) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.types[addr] {
		if cid := m.pointers[pointerKey{addr, t}]; cid != "" && !m.revoked[cid] {
			return true, nil
		}
	}
	return false, nil
}

// LatestAttestationPointer returns the pointer of the most recently anchored type.
func (m *MemoryLedger) LatestAttestationPointer(_ context.Context, addr domain.WalletAddress) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := m.types[addr]
	if len(types) == 0 {
		return "", nil
	}
	return m.pointers[pointerKey{addr, types[len(types)-1]}], nil
}

// AnchorAttestation records the pointer. A re-anchored type moves to the end of
// the type list so the last entry always names the newest document.
func (m *MemoryLedger) AnchorAttestation(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType, cid string) (string, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", &Error{Op: methodMint, Kind: ErrRejected, Message: "write cancelled", Underlying: ctx.Err()}
		case <-timer.C:
		}
	}

	txHash := randomTxHash()
	m.mu.Lock()
	defer m.mu.Unlock()
	types := slices.DeleteFunc(m.types[addr], func(existing domain.VerificationType) bool { return existing == t })
	m.types[addr] = append(types, t)
	m.pointers[pointerKey{addr, t}] = cid
	m.txs[txHash] = TxConfirmed
	enterPhase(PhaseConfirmed)
	return txHash, nil
}

func (m *MemoryLedger) AnchorStatus(_ context.Context, txHash string) (AnchorStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.txs[txHash]
	if !ok {
		status = TxUnknown
	}
	return AnchorStatus{TxHash: txHash, Status: status}, nil
}

// Revoke marks cid as revoked.
func (m *MemoryLedger) Revoke(cid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[cid] = true
}

// SetConsent records whether addr consented to sharing type t.
func (m *MemoryLedger) SetConsent(addr domain.WalletAddress, t domain.VerificationType, consented bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consents[pointerKey{addr, t}] = consented
}

func randomTxHash() string {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return "0x" + hex.EncodeToString(b[:])
}
