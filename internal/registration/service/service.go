package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"regdesk/internal/events"
	"regdesk/internal/registration/metrics"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/validation"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/platform/sentinel"
	"regdesk/pkg/requestcontext"
)

var tracer = otel.Tracer("regdesk/internal/registration/service")

// Registry persists accepted registrations. Append must check uniqueness and
// write in one atomic step and report a duplicate with sentinel.ErrAlreadyUsed.
type Registry interface {
	Lookup(ctx context.Context, username string) (bool, error)
	Append(ctx context.Context, record *models.Record) error
	ListAll(ctx context.Context) ([]*models.Record, error)
}

// Publisher receives user_registered events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service runs the registration workflow: validate, lookup, append.
type Service struct {
	registry  Registry
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	clock     func() time.Time
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

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock replaces the request time as the source of "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New constructs a Service.
func New(registry Registry, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	s := &Service{registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the candidate and appends it to the registry.
//
// Errors:
//   - CodeValidation wrapping validation.Errors when any field is invalid
//   - CodeConflict when the username is already registered, including a
//     duplicate that raced in between lookup and append
//   - CodeUnavailable when the registry cannot be read or written
func (s *Service) Register(ctx context.Context, c models.Candidate) (*models.Record, error) {
	ctx, span := tracer.Start(ctx, "registration.Register")
	defer span.End()
	start := time.Now()
	now := s.now(ctx)

	if errs := validation.Validate(c, now); len(errs) > 0 {
		s.observe(metrics.OutcomeInvalid, start)
		span.SetAttributes(attribute.String("outcome", metrics.OutcomeInvalid))
		return nil, dErrors.Wrap(errs, dErrors.CodeValidation, "validation failed")
	}

	taken, err := s.registry.Lookup(ctx, c.Username)
	if err != nil {
		return nil, s.unavailable(ctx, span, start, "lookup", err)
	}
	if taken {
		s.observe(metrics.OutcomeTaken, start)
		span.SetAttributes(attribute.String("outcome", metrics.OutcomeTaken))
		return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
	}

	record, err := newRecord(c, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "validation failed")
	}
	if err := s.registry.Append(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.observe(metrics.OutcomeTaken, start)
			span.SetAttributes(attribute.String("outcome", metrics.OutcomeTaken))
			return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return nil, s.unavailable(ctx, span, start, "append", err)
	}

	s.observe(metrics.OutcomeAccepted, start)
	span.SetAttributes(attribute.String("outcome", metrics.OutcomeAccepted))
	s.logAudit(ctx, "user_registered", "username", record.Username)
	s.publish(ctx, record)
	return record.Clone(), nil
}

// List returns every record in insertion order.
func (s *Service) List(ctx context.Context) ([]*models.Record, error) {
	records, err := s.registry.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load registrations")
	}
	return records, nil
}

// IsTaken reports whether username is registered, ignoring case.
func (s *Service) IsTaken(ctx context.Context, username string) (bool, error) {
	taken, err := s.registry.Lookup(ctx, username)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to look up username")
	}
	return taken, nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) unavailable(ctx context.Context, span trace.Span, start time.Time, op string, err error) error {
	s.observe(metrics.OutcomeUnavailable, start)
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "registry "+op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "registry unavailable")
}

func (s *Service) observe(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRegister(outcome, start)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs,
		"event", event,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	s.logger.InfoContext(ctx, event, args...)
}

// publish never fails the registration; the record is already stored.
func (s *Service) publish(ctx context.Context, record *models.Record) {
	if s.publisher == nil {
		return
	}
	event := events.NewUserRegistered(record.Username, record.Email, requestcontext.RequestID(ctx), record.RegisteredAt)
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish registration event",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", event.ID,
			"error", err,
		)
	}
}

// newRecord converts a validated candidate. The password is dropped here.
func newRecord(c models.Candidate, now time.Time) (*models.Record, error) {
	record := &models.Record{
		Username:     c.Username,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      strings.TrimSpace(c.Address),
		Skills:       make([]string, 0, len(c.Skills)),
		RegisteredAt: now.UTC(),
	}
	for _, skill := range c.Skills {
		record.Skills = append(record.Skills, strings.TrimSpace(skill))
	}
	if c.DateOfBirth != "" {
		dob, err := models.ParseDate(c.DateOfBirth)
		if err != nil {
			return nil, err
		}
		record.DateOfBirth = &dob
	}
	return record, nil
}
