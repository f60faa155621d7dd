package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"keystone/internal/attestation/models"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	pstrings "keystone/pkg/platform/strings"
)

// Verify runs the verification check for t and records the result.
func (s *Service) Verify(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (*models.AnchorResult, error) {
	if s.verifier == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no verifier configured")
	}
	v, err := s.verifier.Verify(ctx, addr, t)
	if err != nil {
		return nil, err
	}
	return s.RecordVerification(ctx, addr, v)
}

// RecordVerification merges v into the wallet's composite document, uploads it,
// anchors the new CID and publishes a copy carrying the transaction hash.
//
// Once the wallet lock is held the write runs to completion even if ctx is
// cancelled, within the write budget.
func (s *Service) RecordVerification(ctx context.Context, addr domain.WalletAddress, v models.Verification) (*models.AnchorResult, error) {
	ctx, span := s.tracer.Start(ctx, "attestation.RecordVerification", trace.WithAttributes(
		attribute.String("wallet_address", addr.String()),
		attribute.String("verification_type", v.Type.String()),
	))
	defer span.End()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, addr)
		if err != nil {
			return nil, s.fail(span, lockError(err))
		}
		defer unlock()
	}
	ctx = context.WithoutCancel(ctx)
	if s.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}

	doc := s.resolveDocument(ctx, addr)
	doc.Put(v.Type, v.Record, s.now())

	cid, err := s.upload(ctx, doc, "provisional")
	if err != nil {
		return nil, s.fail(span, storageError(err))
	}
	span.SetAttributes(attribute.String("cid", cid))

	txHash, err := s.anchor(ctx, addr, v.Type, cid)
	if err != nil {
		s.logger.ErrorContext(ctx, "anchor failed",
			"wallet_address", addr.String(),
			"verification_type", v.Type.String(),
			"cid", cid,
			"error", err,
		)
		return nil, s.fail(span, ledgerWriteError(err))
	}
	span.SetAttributes(attribute.String("transaction_hash", txHash))

	result := &models.AnchorResult{
		CID:             cid,
		AnchoredCID:     cid,
		TransactionHash: txHash,
		VerifiedAt:      v.Record.VerifiedAt,
	}

	doc.AttachProof(v.Type, txHash, s.now())
	proofCID, err := s.upload(ctx, doc, "proof")
	if err != nil {
		s.logger.WarnContext(ctx, "proof re-upload failed; anchored document has no transaction hash",
			"wallet_address", addr.String(),
			"cid", cid,
			"transaction_hash", txHash,
			"error", err,
		)
		return result, nil
	}
	result.CID = proofCID
	result.ProofPublished = true

	s.logger.InfoContext(ctx, "verification recorded",
		"wallet_address", addr.String(),
		"verification_type", v.Type.String(),
		"cid", result.CID,
		"transaction_hash", txHash,
		"document_types", doc.Types(),
	)
	return result, nil
}

// resolveDocument loads the document behind the wallet's most recently anchored
// type. Any failure falls back to a fresh document.
func (s *Service) resolveDocument(ctx context.Context, addr domain.WalletAddress) *models.Document {
	ctx, span := s.tracer.Start(ctx, "attestation.resolveDocument")
	defer span.End()

	fresh := func(reason string, err error) *models.Document {
		s.metrics.IncrementResolveFallback(reason)
		if err != nil {
			s.logger.WarnContext(ctx, "could not load existing document, starting fresh",
				"wallet_address", addr.String(),
				"reason", reason,
				"error", err,
			)
		}
		span.SetAttributes(attribute.String("fallback", reason))
		return models.NewDocument(addr, s.now())
	}

	types, err := s.ledger.ListVerificationTypes(ctx, addr)
	if err != nil {
		return fresh("ledger_error", err)
	}
	latest, ok := pstrings.LastNonBlank(typeStrings(types))
	if !ok {
		return fresh("no_history", nil)
	}
	cid, err := s.ledger.AttestationPointer(ctx, addr, domain.VerificationType(latest))
	if err != nil {
		return fresh("ledger_error", err)
	}
	if cid == "" {
		return fresh("no_history", nil)
	}
	doc, err := s.store.Fetch(ctx, cid)
	if err != nil {
		return fresh("fetch_error", err)
	}
	if doc.WalletAddress.IsZero() {
		doc.WalletAddress = addr
	}
	return doc
}

func (s *Service) upload(ctx context.Context, doc *models.Document, stage string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "attestation.upload", trace.WithAttributes(attribute.String("stage", stage)))
	defer span.End()

	cid, err := s.store.Upload(ctx, doc)
	if err != nil {
		s.metrics.IncrementUpload(stage, "failure")
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", err
	}
	s.metrics.IncrementUpload(stage, "success")
	return cid, nil
}

func (s *Service) anchor(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType, cid string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "attestation.anchor")
	defer span.End()

	start := time.Now()
	txHash, err := s.ledger.AnchorAttestation(ctx, addr, t, cid)
	outcome := "confirmed"
	if err != nil {
		outcome = string(dErrors.CodeOf(ledgerWriteError(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.ObserveAnchor(outcome, time.Since(start))
	return txHash, err
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

func lockError(err error) error {
	if errors.Is(err, sentinel.ErrLocked) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "another verification for this wallet is in progress")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire wallet lock")
}
