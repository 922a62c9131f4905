package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Well-known event types published by the backend modules.
const (
	EventTaskAssigned  = "tasks.assigned"
	EventTaskCompleted = "tasks.completed"
	EventCommentAdded  = "comments.added"
)

// eventTypePattern enforces the "<module>.<action>" convention used by every
// publisher (lowercase with underscores, one dot).
var eventTypePattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// ValidEventType reports whether s follows the <module>.<action> convention.
func ValidEventType(s string) bool {
	return eventTypePattern.MatchString(s)
}

// Envelope is one event instance in transit to a live connection or a webhook
// endpoint. The payload is opaque to the delivery engine; the timestamp is
// assigned at dispatch time, not when the business change was committed.
type Envelope struct {
	EventType string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEnvelope builds an envelope with a fresh UTC dispatch timestamp.
func NewEnvelope(eventType string, payload map[string]any) Envelope {
	return Envelope{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// SubscriberID identifies a tenant-scoped user who may hold zero or more live
// connections.
type SubscriberID = uuid.UUID
