// Package events publishes registration lifecycle events. Events are
// operational: losing one never fails or rolls back a registration.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Type names an event.
type Type string

const TypeUserRegistered Type = "user_registered"

// Event is emitted after a registration is persisted. It carries no
// secrets and no free-form profile data beyond the contact email.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
	RequestID  string    `json:"requestId,omitempty"`
}

// NewUserRegistered builds a user_registered event with a fresh ID.
func NewUserRegistered(username, email, requestID string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeUserRegistered,
		Username:   username,
		Email:      email,
		OccurredAt: at.UTC(),
		RequestID:  requestID,
	}
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log. Used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, string(event.Type),
		"event_id", event.ID,
		"username", event.Username,
		"occurred_at", event.OccurredAt,
		"request_id", event.RequestID,
		"log_type", "event",
	)
	return nil
}
