// Package availability answers "is this username taken?" for live form
// feedback. It is advisory only: the registry's atomic append is the
// uniqueness gate.
package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"regdesk/internal/registration/models"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/requestcontext"
)

var tracer = otel.Tracer("regdesk/internal/availability")

// Lookup is the read side of the registry.
type Lookup interface {
	Lookup(ctx context.Context, username string) (bool, error)
}

// Result is the answer to one check.
type Result struct {
	Taken bool
}

// Metrics counts checks by result: taken, available or error.
type Metrics struct {
	Checks *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Checks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_username_checks_total",
			Help: "Username availability checks by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) inc(result string) {
	if m != nil {
		m.Checks.WithLabelValues(result).Inc()
	}
}

// DefaultLookupTimeout bounds a shared registry lookup.
const DefaultLookupTimeout = 5 * time.Second

// Service coalesces concurrent checks for the same case-insensitive username
// into one registry lookup.
type Service struct {
	registry Lookup
	group    singleflight.Group
	logger   *slog.Logger
	metrics  *Metrics
	timeout  time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLookupTimeout bounds the shared lookup independently of any one caller.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(registry Lookup, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	s := &Service{registry: registry, timeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check looks up username. A blank username is a CodeBadRequest error;
// registry failures are CodeUnavailable.
func (s *Service) Check(ctx context.Context, username string) (Result, error) {
	ctx, span := tracer.Start(ctx, "availability.Check")
	defer span.End()

	if strings.TrimSpace(username) == "" {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}

	key := models.UsernameKey(username)
	v, shared, err := s.lookup(ctx, key)
	span.SetAttributes(attribute.Bool("coalesced", shared))
	if err != nil {
		s.metrics.inc("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "username check failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "unable to check username")
	}

	if v {
		s.metrics.inc("taken")
	} else {
		s.metrics.inc("available")
	}
	return Result{Taken: v}, nil
}

// lookup joins the in-flight lookup for key. The shared call is detached from
// the caller that started it; each caller stops waiting on its own ctx.
func (s *Service) lookup(ctx context.Context, key string) (taken, shared bool, err error) {
	ch := s.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.registry.Lookup(lctx, key)
	})
	select {
	case <-ctx.Done():
		return false, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return false, r.Shared, r.Err
		}
		return r.Val.(bool), r.Shared, nil
	}
}
