// Package httpapi assembles the public HTTP surface: middleware, feature
// handlers, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regdesk/internal/platform/metrics"
	"regdesk/internal/platform/middleware"
	"regdesk/pkg/platform/httputil"
	"regdesk/pkg/requestcontext"
)

// Registrar mounts feature routes.
type Registrar interface {
	Register(r chi.Router)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the router's collaborators. Gatherer may be nil to omit /metrics.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Health         Pinger
	AllowedOrigins []string
	RequestTimeout time.Duration
	Handlers       []Registrar
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Latency(d.Metrics))
	r.Use(middleware.CORS(d.AllowedOrigins))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", healthz(d.Health, d.Logger))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		for _, h := range d.Handlers {
			h.Register(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteFailure(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func healthz(p Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteFailure(w, http.StatusServiceUnavailable, "Storage unavailable")
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, httputil.Message{OK: true, Message: "healthy"})
	}
}
