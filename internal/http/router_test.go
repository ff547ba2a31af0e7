package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/platform/metrics"
	"regdesk/internal/platform/middleware"
	"regdesk/pkg/testutil"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type panicky struct{}

func (panicky) Register(r chi.Router) {
	r.Post("/api/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	r.Post("/api/echo", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func newRouter(t *testing.T, health Pinger) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(Deps{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Health:         health,
		AllowedOrigins: []string{"*"},
		Handlers:       []Registrar{panicky{}},
	})
}

func TestHealthz(t *testing.T) {
	rr := testutil.DoRequest(newRouter(t, pinger{}), testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	testutil.AssertEnvelope(t, rr, http.StatusOK, true, "healthy")

	rr = testutil.DoRequest(newRouter(t, pinger{err: errors.New("down")}), testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	testutil.AssertEnvelope(t, rr, http.StatusServiceUnavailable, false, "Storage unavailable")
}

func TestRecoveryAndRequestID(t *testing.T) {
	rr := testutil.DoRequest(newRouter(t, nil), testutil.NewJSONRequest(t, http.MethodPost, "/api/boom", `{}`))
	testutil.AssertEnvelope(t, rr, http.StatusInternalServerError, false, "Internal server error")
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsExposed(t *testing.T) {
	router := newRouter(t, nil)
	testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/echo", `{}`))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `regdesk_http_requests_total{method="POST",route="/api/echo",status="204"} 1`)
}

func TestContentTypeEnforcedOnAPI(t *testing.T) {
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/echo", `{}`)
	req.Header.Set("Content-Type", "text/plain")
	rr := testutil.DoRequest(newRouter(t, nil), req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := testutil.NewJSONRequest(t, http.MethodOptions, "/api/echo", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := testutil.DoRequest(newRouter(t, nil), req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	rr := testutil.DoRequest(newRouter(t, nil), testutil.NewJSONRequest(t, http.MethodGet, "/nope", nil))
	env := testutil.AssertEnvelope(t, rr, http.StatusNotFound, false, "Not found")
	assert.True(t, strings.HasPrefix(env.Message, "Not"))
}
