// Package events delivers business events raised by mutations. Publishing is
// fire-and-forget: a failed delivery is logged by the publisher and never
// affects the mutation that raised the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types emitted by the API.
const (
	TypeGroupCreated             = "group_created"
	TypeGroupsUpdated            = "groups_updated"
	TypeGroupDeleted             = "group_deleted"
	TypeTaskCreated              = "task_created"
	TypeTasksUpdated             = "tasks_updated"
	TypeTaskDeleted              = "task_deleted"
	TypeProjectCreated           = "project_created"
	TypeProjectDeleted           = "project_deleted"
	TypeLabelCreated             = "label_created"
	TypeLabelDeleted             = "label_deleted"
	TypeRecurringInstanceCreated = "recurring_task_instance_created"
	TypeRecurringTaskError       = "recurring_task_processing_error"
)

// Event is one business event with a small structured payload.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// New builds an event with a fresh id and the current UTC timestamp.
func New(eventType string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Publisher delivers business events. Implementations must never block the
// caller on delivery failures.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// LogPublisher writes events to the structured log. It is the default
// backend when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher backed by the given logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event Event) {
	p.logger.Info("business_event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Any("payload", event.Payload),
	)
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }

// NopPublisher discards events. Useful in tests.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, Event) {}

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
