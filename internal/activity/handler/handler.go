// Package handler serves the wallet activity feed.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"keystone/internal/activity/models"
	"keystone/internal/platform/middleware"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httputil"
)

type Service interface {
	List(ctx context.Context, addr domain.WalletAddress) ([]models.Activity, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ActivityResponse is the body of GET /activity.
type ActivityResponse struct {
	WalletAddress string            `json:"walletAddress"`
	Activities    []models.Activity `json:"activities"`
	Total         int               `json:"total"`
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/activity", h.HandleList)
}

// HandleList returns the wallet's recorded activity, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("address")
	if strings.TrimSpace(raw) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "address parameter is required"))
		return
	}
	addr, err := domain.ParseWalletAddress(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, err := h.service.List(ctx, addr)
	if err != nil {
		h.logger.ErrorContext(ctx, "list activity failed",
			"request_id", middleware.GetRequestID(ctx),
			"wallet_address", addr.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ActivityResponse{
		WalletAddress: addr.String(),
		Activities:    list,
		Total:         len(list),
	})
}
