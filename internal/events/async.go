package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"regdesk/pkg/platform/circuit"
)

// ErrBufferFull is returned by Async.Publish when the queue is saturated.
var ErrBufferFull = errors.New("event buffer full")

// Async queues events in a bounded buffer and delivers them from a single
// worker goroutine, so a slow or dead sink never blocks a registration.
type Async struct {
	sink    Publisher
	inbox   chan queued
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
}

type queued struct {
	event Event
}

type AsyncOption func(*Async)

func WithLogger(logger *slog.Logger) AsyncOption {
	return func(a *Async) { a.logger = logger }
}

func WithMetrics(m *Metrics) AsyncOption {
	return func(a *Async) { a.metrics = m }
}

func WithBreaker(cb *circuit.Breaker) AsyncOption {
	return func(a *Async) { a.breaker = cb }
}

// WithDeliveryTimeout bounds each delivery attempt. Defaults to 5s.
func WithDeliveryTimeout(d time.Duration) AsyncOption {
	return func(a *Async) { a.timeout = d }
}

// NewAsync wraps sink with a buffer of the given size.
func NewAsync(sink Publisher, buffer int, opts ...AsyncOption) *Async {
	if buffer <= 0 {
		buffer = 1
	}
	a := &Async{
		sink:    sink,
		inbox:   make(chan queued, buffer),
		breaker: circuit.New("events"),
		logger:  slog.New(slog.DiscardHandler),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Publish enqueues without blocking.
func (a *Async) Publish(ctx context.Context, event Event) error {
	select {
	case a.inbox <- queued{event: event}:
		return nil
	default:
		a.metrics.incDropped("buffer_full")
		a.logger.WarnContext(ctx, "event dropped: buffer full",
			"event_id", event.ID,
			"type", string(event.Type),
		)
		return ErrBufferFull
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already buffered with a short grace period.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return nil
		case q := <-a.inbox:
			a.deliver(ctx, q.event)
		}
	}
}

func (a *Async) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for {
		select {
		case q := <-a.inbox:
			if ctx.Err() != nil {
				a.metrics.incDropped("shutdown")
				continue
			}
			a.deliver(ctx, q.event)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, event Event) {
	if !a.breaker.Allow() {
		a.metrics.incDropped("circuit_open")
		return
	}
	attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.sink.Publish(attemptCtx, event); err != nil {
		a.metrics.incFailed()
		if a.breaker.RecordFailure() {
			a.logger.Error("event sink circuit opened", "error", err)
		}
		a.logger.Warn("event delivery failed",
			"event_id", event.ID,
			"type", string(event.Type),
			"error", err,
		)
		return
	}
	a.breaker.RecordSuccess()
	a.metrics.incPublished()
}
