// Package service implements the composite attestation protocol: a wallet's
// verifications live in one JSON document on the content store, and the ledger
// records which document is current.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"keystone/internal/attestation/ledger"
	"keystone/internal/attestation/metrics"
	"keystone/internal/attestation/models"
	"keystone/pkg/domain"
)

type DocumentStore interface {
	Upload(ctx context.Context, doc *models.Document) (string, error)
	Fetch(ctx context.Context, cid string) (*models.Document, error)
}

type Ledger interface {
	ListVerificationTypes(ctx context.Context, addr domain.WalletAddress) ([]domain.VerificationType, error)
	AttestationPointer(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (string, error)
	IsRevoked(ctx context.Context, cid string) (bool, error)
	HasConsented(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (bool, error)
	HasAnyValidVerification(ctx context.Context, addr domain.WalletAddress) (bool, error)
	LatestAttestationPointer(ctx context.Context, addr domain.WalletAddress) (string, error)
	AnchorAttestation(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType, cid string) (string, error)
	AnchorStatus(ctx context.Context, txHash string) (ledger.AnchorStatus, error)
}

type Verifier interface {
	Verify(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (models.Verification, error)
}

type AddressLocker interface {
	Lock(ctx context.Context, addr domain.WalletAddress) (unlock func(), err error)
}

type SignatureVerifier interface {
	Verify(addr domain.WalletAddress, signature string) error
}

// Service orchestrates the content store and the ledger. Writes for one wallet
// are serialized through the locker; reads take no locks.
type Service struct {
	store      DocumentStore
	ledger     Ledger
	verifier   Verifier
	locker     AddressLocker
	signatures SignatureVerifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
	listLimit  int
	budget     time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLocker(l AddressLocker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithVerifier(v Verifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

func WithSignatureVerifier(v SignatureVerifier) Option {
	return func(s *Service) {
		s.signatures = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithWriteBudget bounds a locked write from lock acquisition to the proof
// upload. Zero leaves it bounded only by the collaborators' own timeouts.
func WithWriteBudget(d time.Duration) Option {
	return func(s *Service) {
		s.budget = d
	}
}

// New constructs a Service.
func New(store DocumentStore, l Ledger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("content store is required")
	}
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	s := &Service{
		store:     store,
		ledger:    l,
		logger:    slog.Default(),
		tracer:    otel.Tracer("keystone/attestation"),
		now:       time.Now,
		listLimit: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
