// Package simulator stands in for a real KYC provider: after a processing delay
// it returns a fixed, verified payload for the requested type.
package simulator

import (
	"context"
	"log/slog"
	"time"

	"keystone/internal/attestation/models"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
)

const DefaultDelay = 2 * time.Second

type Simulator struct {
	delay  time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Simulator)

// WithDelay sets the simulated processing time. Zero disables the wait.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		delay:  DefaultDelay,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify waits out the processing delay and returns a verified record for t.
// Types without a canned payload get only status and timestamp.
func (s *Simulator) Verify(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (models.Verification, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.Verification{}, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "verification cancelled")
		case <-timer.C:
		}
	}

	v := models.NewVerification(Payload(t), models.StatusVerified, s.now().UTC())
	s.logger.InfoContext(ctx, "simulated verification check",
		"wallet_address", addr.String(),
		"verification_type", t.String(),
	)
	return v, nil
}

// Payload returns the canned payload for t.
func Payload(t domain.VerificationType) models.Payload {
	switch t {
	case domain.VerificationIdentity:
		return models.IdentityPayload{IsOver18: true, Country: "US", DocumentType: "passport"}
	case domain.VerificationStudent:
		return models.StudentPayload{University: "MIT", StudentID: "12345", GraduationYear: "2025"}
	case domain.VerificationAddress:
		return models.AddressPayload{Address: "123 Main St, Boston, MA", DocumentType: "utility_bill"}
	case domain.VerificationSelfie:
		return models.SelfiePayload{BiometricVerified: true, LivenessScore: 0.95}
	case domain.VerificationEmployment:
		return models.EmploymentPayload{Company: "Tech Corp", Position: "Software Engineer", SalaryRange: "100k-150k"}
	default:
		return models.GenericPayload{VerificationType: t}
	}
}
