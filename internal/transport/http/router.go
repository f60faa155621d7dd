// Package httptransport assembles the public HTTP surface: middleware chain,
// module routes, health, metrics and JSON fallbacks.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keystone/internal/platform/metrics"
	"keystone/internal/platform/middleware"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httputil"
	"keystone/pkg/platform/middleware/metadata"
	"keystone/pkg/platform/middleware/requesttime"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Registrar is implemented by module handlers.
type Registrar interface {
	Register(r chi.Router)
}

type RouterConfig struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
	// MetricsHandler serves /metrics. Nil uses the default Prometheus registry.
	MetricsHandler http.Handler
	// ReadinessChecks back /ready, keyed by dependency name.
	ReadinessChecks map[string]ReadinessCheck
}

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(cfg RouterConfig, modules ...Registrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(metadata.ClientMetadata(cfg.TrustedProxies...))
	r.Use(requesttime.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady(cfg.Logger, cfg.ReadinessChecks))
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	for _, m := range modules {
		m.Register(r)
	}

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type readinessResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

func handleReady(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := readinessResponse{OK: true, Checks: make(map[string]string, len(checks))}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.OK = false
				resp.Checks[name] = "unavailable"
				if logger != nil {
					logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				}
				continue
			}
			resp.Checks[name] = "ok"
		}
		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Endpoint not found"))
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
		Error:            "method_not_allowed",
		ErrorDescription: "Method not allowed",
	})
}
