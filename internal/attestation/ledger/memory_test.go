package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/pkg/domain"
)

func TestMemoryLedgerAnchorOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger()
	addr := domain.MustWalletAddress(testUser)

	_, err := m.AnchorAttestation(ctx, addr, domain.VerificationIdentity, "cid-1")
	require.NoError(t, err)
	_, err = m.AnchorAttestation(ctx, addr, domain.VerificationStudent, "cid-2")
	require.NoError(t, err)
	txHash, err := m.AnchorAttestation(ctx, addr, domain.VerificationIdentity, "cid-3")
	require.NoError(t, err)
	assert.Len(t, txHash, 66)

	types, err := m.ListVerificationTypes(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, []domain.VerificationType{domain.VerificationStudent, domain.VerificationIdentity}, types)

	latest, err := m.LatestAttestationPointer(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "cid-3", latest)

	status, err := m.AnchorStatus(ctx, txHash)
	require.NoError(t, err)
	assert.Equal(t, TxConfirmed, status.Status)
}

func TestMemoryLedgerRevokeAndConsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger()
	addr := domain.MustWalletAddress(testUser)

	hasAny, err := m.HasAnyValidVerification(ctx, addr)
	require.NoError(t, err)
	assert.False(t, hasAny)

	_, err = m.AnchorAttestation(ctx, addr, domain.VerificationStudent, "cid-1")
	require.NoError(t, err)
	hasAny, _ = m.HasAnyValidVerification(ctx, addr)
	assert.True(t, hasAny)

	m.Revoke("cid-1")
	revoked, _ := m.IsRevoked(ctx, "cid-1")
	assert.True(t, revoked)
	hasAny, _ = m.HasAnyValidVerification(ctx, addr)
	assert.False(t, hasAny)

	consented, _ := m.HasConsented(ctx, addr, domain.VerificationStudent)
	assert.False(t, consented)
	m.SetConsent(addr, domain.VerificationStudent, true)
	consented, _ = m.HasConsented(ctx, addr, domain.VerificationStudent)
	assert.True(t, consented)
}

func TestMemoryLedgerDelayHonoursContext(t *testing.T) {
	m := NewMemoryLedger(WithDelay(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.AnchorAttestation(ctx, domain.MustWalletAddress(testUser), domain.VerificationStudent, "cid-1")
	assert.ErrorIs(t, err, ErrRejected)

	types, _ := m.ListVerificationTypes(context.Background(), domain.MustWalletAddress(testUser))
	assert.Empty(t, types)
}

func TestMemoryLedgerUnknownTx(t *testing.T) {
	status, err := NewMemoryLedger().AnchorStatus(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.Equal(t, TxUnknown, status.Status)
}
