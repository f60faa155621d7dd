// Package service records and lists wallet activity.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"keystone/internal/activity/device"
	"keystone/internal/activity/models"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/requestcontext"
)

var recordFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keystone_activity_record_failures_total",
	Help: "Activity entries that could not be stored or published",
}, []string{"stage"}) // stage: "store", "publish"

// Store persists activity entries.
type Store interface {
	Append(ctx context.Context, a models.Activity) error
	ListByWallet(ctx context.Context, addr domain.WalletAddress, limit int) ([]models.Activity, error)
}

// Publisher streams entries to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, a models.Activity) error
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	newID     func() uuid.UUID
	listLimit int
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithListLimit caps how many entries List returns.
func WithListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) { s.newID = newID }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("activity store is required")
	}
	s := &Service{
		store:     store,
		logger:    slog.Default(),
		newID:     uuid.New,
		listLimit: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record stores e with the request metadata found in ctx and publishes it.
// Failures are logged and counted; they never reach the caller.
func (s *Service) Record(ctx context.Context, e models.Event) {
	a := s.build(ctx, e)
	ctx = context.WithoutCancel(ctx)

	s.logger.InfoContext(ctx, "activity",
		"activity_id", a.ID.String(),
		"wallet_address", a.WalletAddress.String(),
		"kind", string(a.Kind),
		"app_name", a.AppName,
		"request_id", requestcontext.RequestID(ctx),
	)

	if err := s.store.Append(ctx, a); err != nil {
		recordFailures.WithLabelValues("store").Inc()
		s.logger.WarnContext(ctx, "failed to store activity",
			"activity_id", a.ID.String(),
			"error", err,
		)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, a); err != nil {
		recordFailures.WithLabelValues("publish").Inc()
		s.logger.WarnContext(ctx, "failed to publish activity",
			"activity_id", a.ID.String(),
			"error", err,
		)
	}
}

func (s *Service) build(ctx context.Context, e models.Event) models.Activity {
	ua := requestcontext.UserAgent(ctx)
	info := device.Parse(ua)
	endpoint := requestcontext.RequestEndpoint(ctx)
	return models.Activity{
		ID:               s.newID(),
		WalletAddress:    e.WalletAddress,
		Kind:             e.Kind,
		Timestamp:        requestcontext.Now(ctx).UTC(),
		Description:      e.Description,
		VerificationType: e.VerificationType,
		AppName:          e.AppName,
		Status:           e.Status,
		Endpoint:         endpoint.Path,
		Method:           endpoint.Method,
		ClientIP:         requestcontext.ClientIP(ctx),
		UserAgent:        ua,
		Browser:          info.Browser,
		OS:               info.OS,
	}
}

// List returns the wallet's activity, newest first.
func (s *Service) List(ctx context.Context, addr domain.WalletAddress) ([]models.Activity, error) {
	list, err := s.store.ListByWallet(ctx, addr, s.listLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activity")
	}
	if list == nil {
		list = []models.Activity{}
	}
	return list, nil
}
