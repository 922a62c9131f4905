package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
)

// PublishEventParams defines the input for publishing a domain event.
// Exactly one of RecipientIDs or TenantBroadcast must be set.
type PublishEventParams struct {
	EventType       string
	Payload         map[string]any
	RecipientIDs    []uuid.UUID
	TenantID        uuid.UUID
	TenantBroadcast bool
}

// EventService is the entry point business modules use to announce a domain
// change. Delivery is best-effort for live connections and retried for
// webhook endpoints; the caller never observes per-connection failures.
type EventService interface {
	PublishEvent(ctx context.Context, params PublishEventParams) error
}

// CreateWebhookParams defines the input for registering a webhook endpoint.
type CreateWebhookParams struct {
	TenantID    uuid.UUID
	URL         string
	Secret      string
	Events      []string
	Headers     map[string]string
	MaxAttempts int
	Timeout     time.Duration
	CreatedByID *uuid.UUID
}

// UpdateWebhookParams defines the mutable fields of a webhook endpoint.
// Nil fields are left unchanged.
type UpdateWebhookParams struct {
	URL      *string
	Events   []string
	IsActive *bool
}

// WebhookService defines webhook endpoint management.
type WebhookService interface {
	CreateWebhook(ctx context.Context, params CreateWebhookParams) (*domain.WebhookEndpoint, error)
	GetWebhook(ctx context.Context, id, tenantID uuid.UUID) (*domain.WebhookEndpoint, error)
	ListWebhooks(ctx context.Context, tenantID uuid.UUID) ([]*domain.WebhookEndpoint, error)
	UpdateWebhook(ctx context.Context, id, tenantID uuid.UUID, params UpdateWebhookParams) (*domain.WebhookEndpoint, error)
	DeleteWebhook(ctx context.Context, id, tenantID uuid.UUID) error
}

// TenantDirectory resolves a tenant to its member subscriber identities.
// Membership is owned by the identity collaborator; the dispatcher only
// consumes the resolved set when fanning out a tenant-wide broadcast.
type TenantDirectory interface {
	ResolveTenantMembers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}

// WebhookSender delivers one signed envelope to a webhook endpoint. A non-nil
// error means the attempt failed and may be retried by the caller.
type WebhookSender interface {
	Send(ctx context.Context, endpoint *domain.WebhookEndpoint, envelope domain.Envelope) error
}
