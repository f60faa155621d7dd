package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/internal/platform/middleware"
	"keystone/pkg/requestcontext"
	"keystone/pkg/testutil"
)

type echoModule struct{}

func (echoModule) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Client-IP", requestcontext.ClientIP(ctx))
		w.Header().Set("X-Endpoint", requestcontext.RequestEndpoint(ctx).Path)
		if requestcontext.Now(ctx).IsZero() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter(trusted ...netip.Prefix) chi.Router {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return NewRouter(RouterConfig{
		Logger:         slog.New(slog.DiscardHandler),
		CORSOrigins:    []string{"https://wallet.example"},
		TrustedProxies: trusted,
		MetricsHandler: metrics,
	}, echoModule{})
}

func TestNewRouter(t *testing.T) {
	// httptest requests arrive from 192.0.2.1
	router := newTestRouter(netip.MustParsePrefix("192.0.2.0/24"), netip.MustParsePrefix("10.0.0.0/8"))

	t.Run("health", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("ready without checks", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ok":true,"checks":{}}`, rr.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "# metrics", rr.Body.String())
	})

	t.Run("module routes see request metadata", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rr := testutil.DoRequest(router, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "203.0.113.7", rr.Header().Get("X-Client-IP"))
		assert.Equal(t, "/echo", rr.Header().Get("X-Endpoint"))
	})

	t.Run("forwarding headers ignored without trusted proxies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rr := testutil.DoRequest(newTestRouter(), req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "192.0.2.1", rr.Header().Get("X-Client-IP"))
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/nope", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("wrong method is a JSON 405", func(t *testing.T) {
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/health", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
		req.Header.Set("Origin", "https://wallet.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rr := testutil.DoRequest(router, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "https://wallet.example", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestReadiness(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	newRouter := func(checks map[string]ReadinessCheck) chi.Router {
		return NewRouter(RouterConfig{
			Logger:          slog.New(slog.DiscardHandler),
			MetricsHandler:  http.NotFoundHandler(),
			ReadinessChecks: checks,
		})
	}

	t.Run("all dependencies up", func(t *testing.T) {
		router := newRouter(map[string]ReadinessCheck{"redis": up, "postgres": up})
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ok":true,"checks":{"redis":"ok","postgres":"ok"}}`, rr.Body.String())
	})

	t.Run("one dependency down", func(t *testing.T) {
		router := newRouter(map[string]ReadinessCheck{"redis": down, "postgres": up})
		rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"ok":false,"checks":{"redis":"unavailable","postgres":"ok"}}`, rr.Body.String())
	})

	t.Run("checks run under a deadline", func(t *testing.T) {
		var hasDeadline bool
		router := newRouter(map[string]ReadinessCheck{"redis": func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}})
		testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.True(t, hasDeadline)
	})
}
