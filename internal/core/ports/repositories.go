package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
)

// WebhookRepository defines persistence for webhook endpoint registrations.
type WebhookRepository interface {
	Create(ctx context.Context, endpoint *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.WebhookEndpoint, error)
	// ListForEvent returns the active endpoints of a tenant subscribed to the
	// given event type.
	ListForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]*domain.WebhookEndpoint, error)
	Update(ctx context.Context, endpoint *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// RecordResult bumps the success or failure counter and the
	// last-triggered timestamp after a delivery reaches a final outcome.
	RecordResult(ctx context.Context, id uuid.UUID, success bool) error
}
