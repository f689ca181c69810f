package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the name of the analyst events stream.
	StreamName = "ANALYST"

	// SubjectPrefix is the prefix for all analyst event subjects.
	SubjectPrefix = "analyst"
)

// EventType classifies an analyst lifecycle event.
type EventType string

const (
	EventTypeTurnCompleted EventType = "turn_completed"
	EventTypeToolExecuted  EventType = "tool_executed"
	EventTypeRunFailed     EventType = "run_failed"
)

// Event describes one analyst turn or tool execution.
type Event struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Type       EventType `json:"type"`
	Tool       string    `json:"tool,omitempty"`
	Status     string    `json:"status"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(threadID string, typ EventType, status string) *Event {
	return &Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ThreadID:  threadID,
		Type:      typ,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// Publisher publishes analyst events to JetStream.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the analyst events stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Analyst turn and tool lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// Subject returns the subject for an event.
func Subject(threadID string, typ EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, threadID, typ)
}

// Publish publishes one event. Failures are the caller's to log; event
// publishing never blocks a turn from completing.
func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, Subject(event.ThreadID, event.Type), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
