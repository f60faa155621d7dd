// Package handler exposes the attestation service over HTTP.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	activitymodels "keystone/internal/activity/models"
	"keystone/internal/attestation/ledger"
	"keystone/internal/attestation/models"
	"keystone/internal/platform/middleware"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httputil"
)

// Service defines the attestation operations the handler exposes.
type Service interface {
	Verify(ctx context.Context, addr domain.WalletAddress, t domain.VerificationType) (*models.AnchorResult, error)
	ListVerifications(ctx context.Context, addr domain.WalletAddress) ([]models.VerificationView, error)
	SimpleStatus(ctx context.Context, addr domain.WalletAddress) (*models.StatusResult, error)
	CheckStatus(ctx context.Context, addr domain.WalletAddress, signature string) (*models.StatusResult, error)
	AnchorStatus(ctx context.Context, txHash string) (*ledger.AnchorStatus, error)
}

// ActivityRecorder records user-visible activity. Recording never fails a request.
type ActivityRecorder interface {
	Record(ctx context.Context, e activitymodels.Event)
}

type Handler struct {
	service       Service
	activity      ActivityRecorder
	logger        *slog.Logger
	firstPartyApp string
	readTimeout   time.Duration
	verifyTimeout time.Duration
	writeMW       []func(http.Handler) http.Handler
	readMW        []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithFirstPartyApp names the requester whose reads are not third-party activity.
func WithFirstPartyApp(name string) Option {
	return func(h *Handler) { h.firstPartyApp = name }
}

// WithTimeouts sets request deadlines for read routes and verification routes.
func WithTimeouts(read, verify time.Duration) Option {
	return func(h *Handler) {
		h.readTimeout = read
		h.verifyTimeout = verify
	}
}

// WithWriteMiddleware wraps the verification routes.
func WithWriteMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.writeMW = append(h.writeMW, mw...) }
}

// WithReadMiddleware wraps the status and listing routes.
func WithReadMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.readMW = append(h.readMW, mw...) }
}

func New(service Service, activity ActivityRecorder, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:       service,
		activity:      activity,
		logger:        logger,
		firstPartyApp: "keystone",
		readTimeout:   30 * time.Second,
		verifyTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the attestation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.writeMW...)
		r.Use(middleware.Timeout(h.verifyTimeout))
		r.Post("/verify", h.HandleVerify)
		r.Post("/start-verification", h.HandleStartVerification)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.readMW...)
		r.Use(middleware.Timeout(h.readTimeout))
		r.Get("/verifications", h.HandleListVerifications)
		r.Get("/simple-status", h.HandleSimpleStatus)
		r.Get("/check-status", h.HandleCheckStatus)
		r.Get("/anchor-status", h.HandleAnchorStatus)
	})
}

// HandleVerify runs a simulated verification and records it.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	req, res, ok := h.verify(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerifyResponse(req.vtype, res))
}

func (h *Handler) HandleStartVerification(w http.ResponseWriter, r *http.Request) {
	req, res, ok := h.verify(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StartVerificationResponse{
		VerifyResponse: toVerifyResponse(req.vtype, res),
		Status:         string(models.StatusVerified),
		WalletAddress:  req.address.String(),
		BaseTxHash:     res.TransactionHash,
	})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) (*VerifyRequest, *models.AnchorResult, bool) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return nil, nil, false
	}

	res, err := h.service.Verify(ctx, req.address, req.vtype)
	if err != nil {
		h.writeServiceError(ctx, w, "verification failed", err,
			"wallet_address", req.address.String(),
			"verification_type", req.vtype.String(),
		)
		return nil, nil, false
	}

	h.record(ctx, activitymodels.Event{
		WalletAddress:    req.address,
		Kind:             activitymodels.KindVerificationAdded,
		Description:      fmt.Sprintf("Added %s verification", req.vtype),
		VerificationType: req.vtype,
		Status:           "completed",
	})
	return req, res, true
}

// HandleListVerifications lists the wallet's current verifications. A
// requestedBy other than the first-party app is recorded as third-party access.
func (h *Handler) HandleListVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := requiredAddress(r.URL.Query().Get("address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requestedBy := strings.TrimSpace(r.URL.Query().Get("requestedBy"))

	views, err := h.service.ListVerifications(ctx, addr)
	if err != nil {
		h.writeServiceError(ctx, w, "list verifications failed", err, "wallet_address", addr.String())
		return
	}

	entries := make([]map[string]any, 0, len(views))
	for _, v := range views {
		entries = append(entries, toVerificationEntry(v))
	}

	if requestedBy != "" && requestedBy != h.firstPartyApp {
		h.record(ctx, activitymodels.Event{
			WalletAddress: addr,
			Kind:          activitymodels.KindThirdPartyRequest,
			Description:   "Third-party app requested verification data",
			AppName:       requestedBy,
			Status:        "granted",
		})
	}
	if requestedBy == "" {
		requestedBy = anonymousRequester
	}

	httputil.WriteJSON(w, http.StatusOK, VerificationsResponse{
		WalletAddress: addr.String(),
		Verifications: entries,
		RequestedBy:   requestedBy,
	})
}

func (h *Handler) HandleSimpleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := requiredAddress(r.URL.Query().Get("address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.SimpleStatus(ctx, addr)
	if err != nil {
		h.writeServiceError(ctx, w, "simple status check failed", err, "wallet_address", addr.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(res))
}

// HandleCheckStatus answers a status check signed by the wallet owner.
func (h *Handler) HandleCheckStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	rawAddr := q.Get("walletAddress")
	if rawAddr == "" {
		rawAddr = q.Get("address")
	}
	signature := strings.TrimSpace(q.Get("signature"))
	if strings.TrimSpace(rawAddr) == "" || signature == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "walletAddress and signature are required"))
		return
	}
	addr, err := domain.ParseWalletAddress(rawAddr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.CheckStatus(ctx, addr, signature)
	if err != nil {
		h.writeServiceError(ctx, w, "check status failed", err, "wallet_address", addr.String())
		return
	}

	status := "unverified"
	if res.IsVerified {
		status = "verified"
	}
	h.record(ctx, activitymodels.Event{
		WalletAddress: addr,
		Kind:          activitymodels.KindStatusChecked,
		Description:   "Verification status checked with wallet signature",
		Status:        status,
	})

	resp := toStatusResponse(res)
	if !res.IsVerified {
		resp.Message = "No attestation found"
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAnchorStatus reports on a transaction returned with a ledger_timeout error.
func (h *Handler) HandleAnchorStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txHash := strings.TrimSpace(r.URL.Query().Get("txHash"))
	if txHash == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "txHash parameter is required"))
		return
	}
	status, err := h.service.AnchorStatus(ctx, txHash)
	if err != nil {
		h.writeServiceError(ctx, w, "anchor status lookup failed", err, "tx_hash", txHash)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAnchorStatusResponse(status))
}

func (h *Handler) record(ctx context.Context, e activitymodels.Event) {
	if h.activity == nil {
		return
	}
	h.activity.Record(ctx, e)
}

// writeServiceError logs at a level matching the error class and writes the envelope.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs,
		"request_id", middleware.GetRequestID(ctx),
		"error_code", string(dErrors.CodeOf(err)),
		"error", err,
	)
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
