package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEndpoint is a tenant-scoped registration for outbound event delivery.
// Every published event whose type matches Events is POSTed to URL, signed
// with Secret.
type WebhookEndpoint struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	URL             string
	Secret          string
	Events          []string
	IsActive        bool
	Headers         map[string]string
	MaxAttempts     int
	Timeout         time.Duration
	CreatedByID     *uuid.UUID
	CreatedAt       time.Time
	LastTriggeredAt *time.Time
	SuccessCount    int64
	FailureCount    int64
}

// SubscribedTo reports whether the endpoint wants the given event type.
// An empty Events list means all events.
func (w *WebhookEndpoint) SubscribedTo(eventType string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}
