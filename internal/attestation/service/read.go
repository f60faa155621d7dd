package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"keystone/internal/attestation/ledger"
	"keystone/internal/attestation/models"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	pstrings "keystone/pkg/platform/strings"
)

// ListVerifications returns one entry per non-revoked verification type on the
// ledger, in ledger order. A document that cannot be read yields a degraded entry
// instead of failing the whole list.
func (s *Service) ListVerifications(ctx context.Context, addr domain.WalletAddress) ([]models.VerificationView, error) {
	ctx, span := s.tracer.Start(ctx, "attestation.ListVerifications")
	defer span.End()

	types, err := s.ledger.ListVerificationTypes(ctx, addr)
	if err != nil {
		return nil, s.fail(span, ledgerReadError(err))
	}
	types = dedupeTypes(types)

	views := make([]*models.VerificationView, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.listLimit)
	for i, t := range types {
		g.Go(func() error {
			views[i] = s.viewFor(gctx, addr, t)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.VerificationView, 0, len(views))
	for _, v := range views {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// viewFor builds the entry for one type; nil means the type is skipped.
func (s *Service) viewFor(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) *models.VerificationView {
	log := s.logger.With("wallet_address", addr.String(), "verification_type", t.String())

	cid, err := s.ledger.AttestationPointer(ctx, addr, t)
	if err != nil {
		log.WarnContext(ctx, "skipping verification type: pointer lookup failed", "error", err)
		return nil
	}
	if cid == "" {
		return nil
	}
	revoked, err := s.ledger.IsRevoked(ctx, cid)
	if err != nil {
		log.WarnContext(ctx, "skipping verification type: revocation lookup failed", "cid", cid, "error", err)
		return nil
	}
	if revoked {
		return nil
	}
	consented, err := s.ledger.HasConsented(ctx, addr, t)
	if err != nil {
		log.WarnContext(ctx, "consent lookup failed, reporting not consented", "error", err)
		consented = false
	}

	view := &models.VerificationView{Type: t, CID: cid, Consented: consented}
	doc, err := s.store.Fetch(ctx, cid)
	if err != nil {
		log.WarnContext(ctx, "could not fetch verification details", "cid", cid, "error", err)
		return s.degraded(view)
	}
	rec, ok := doc.Record(t)
	if !ok {
		log.WarnContext(ctx, "document has no record for anchored type", "cid", cid)
		return s.degraded(view)
	}
	view.Record = &rec
	view.IsVerified = rec.IsVerified()
	view.Payload = models.PayloadFor(t, rec.Fields)
	if _, generic := view.Payload.(models.GenericPayload); generic && t.IsKnown() {
		log.WarnContext(ctx, "stored fields do not match the type's shape, rendering verbatim", "cid", cid)
	}
	return view
}

// degraded entries still report verified: the ledger pointer exists and is not revoked.
func (s *Service) degraded(view *models.VerificationView) *models.VerificationView {
	s.metrics.IncrementDegraded()
	view.IsVerified = true
	view.Error = models.DegradedDetail
	return view
}

// SimpleStatus reports whether addr holds any non-revoked verification, and the
// CID of the latest one.
func (s *Service) SimpleStatus(ctx context.Context, addr domain.WalletAddress) (*models.StatusResult, error) {
	ok, err := s.ledger.HasAnyValidVerification(ctx, addr)
	if err != nil {
		return nil, ledgerReadError(err)
	}
	if !ok {
		return &models.StatusResult{}, nil
	}
	cid, err := s.ledger.LatestAttestationPointer(ctx, addr)
	if err != nil {
		return nil, ledgerReadError(err)
	}
	return &models.StatusResult{IsVerified: true, CID: cid}, nil
}

// CheckStatus is SimpleStatus gated on a wallet signature over the challenge.
func (s *Service) CheckStatus(ctx context.Context, addr domain.WalletAddress, signature string) (*models.StatusResult, error) {
	if s.signatures == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no signature verifier configured")
	}
	if err := s.signatures.Verify(addr, signature); err != nil {
		s.logger.WarnContext(ctx, "status check signature rejected", "wallet_address", addr.String(), "error", err)
		return nil, err
	}
	return s.SimpleStatus(ctx, addr)
}

// AnchorStatus reports on a transaction returned with a ledger_timeout error.
func (s *Service) AnchorStatus(ctx context.Context, txHash string) (*ledger.AnchorStatus, error) {
	if !isTxHash(txHash) {
		return nil, dErrors.New(dErrors.CodeValidation, "txHash must be a 0x-prefixed 32-byte hex string")
	}
	status, err := s.ledger.AnchorStatus(ctx, txHash)
	if err != nil {
		return nil, ledgerReadError(err)
	}
	return &status, nil
}

func typeStrings(types []domain.VerificationType) []string {
	raw := make([]string, len(types))
	for i, t := range types {
		raw[i] = string(t)
	}
	return raw
}

func dedupeTypes(types []domain.VerificationType) []domain.VerificationType {
	raw := pstrings.DedupeAndTrim(typeStrings(types))
	out := make([]domain.VerificationType, len(raw))
	for i, t := range raw {
		out[i] = domain.VerificationType(t)
	}
	return out
}

func isTxHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
