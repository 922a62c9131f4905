package services

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	apperrors "github.com/opsboard/realtime-backend/internal/core/errors"
	"github.com/opsboard/realtime-backend/internal/core/ports"
	"github.com/opsboard/realtime-backend/internal/core/retry"
)

const defaultWebhookTimeout = 30 * time.Second

// WebhookService manages tenant webhook endpoint registrations.
type WebhookService struct {
	repo ports.WebhookRepository
}

var _ ports.WebhookService = (*WebhookService)(nil)

// NewWebhookService creates a new webhook service.
func NewWebhookService(repo ports.WebhookRepository) *WebhookService {
	return &WebhookService{repo: repo}
}

// CreateWebhook validates and registers a new endpoint.
func (s *WebhookService) CreateWebhook(ctx context.Context, params ports.CreateWebhookParams) (*domain.WebhookEndpoint, error) {
	if params.TenantID == uuid.Nil {
		return nil, apperrors.ErrTenantIDRequired
	}
	if err := validateWebhookURL(params.URL); err != nil {
		return nil, err
	}
	if len(params.Events) == 0 {
		return nil, apperrors.ErrWebhookEventsEmpty
	}
	for _, e := range params.Events {
		if !domain.ValidEventType(e) {
			return nil, apperrors.ErrInvalidEventType
		}
	}

	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = retry.DefaultMaxAttempts
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	endpoint := &domain.WebhookEndpoint{
		ID:          uuid.New(),
		TenantID:    params.TenantID,
		URL:         params.URL,
		Secret:      params.Secret,
		Events:      params.Events,
		IsActive:    true,
		Headers:     params.Headers,
		MaxAttempts: maxAttempts,
		Timeout:     timeout,
		CreatedByID: params.CreatedByID,
		CreatedAt:   time.Now().UTC(),
	}

	return s.repo.Create(ctx, endpoint)
}

// GetWebhook returns an endpoint if it belongs to the tenant.
func (s *WebhookService) GetWebhook(ctx context.Context, id, tenantID uuid.UUID) (*domain.WebhookEndpoint, error) {
	endpoint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if endpoint.TenantID != tenantID {
		// Cross-tenant lookups are indistinguishable from missing endpoints.
		return nil, apperrors.ErrWebhookNotFound
	}
	return endpoint, nil
}

// ListWebhooks returns all endpoints registered for the tenant.
func (s *WebhookService) ListWebhooks(ctx context.Context, tenantID uuid.UUID) ([]*domain.WebhookEndpoint, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// UpdateWebhook applies the non-nil fields of params to the endpoint.
func (s *WebhookService) UpdateWebhook(ctx context.Context, id, tenantID uuid.UUID, params ports.UpdateWebhookParams) (*domain.WebhookEndpoint, error) {
	endpoint, err := s.GetWebhook(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if params.URL != nil {
		if err := validateWebhookURL(*params.URL); err != nil {
			return nil, err
		}
		endpoint.URL = *params.URL
	}
	if params.Events != nil {
		if len(params.Events) == 0 {
			return nil, apperrors.ErrWebhookEventsEmpty
		}
		for _, e := range params.Events {
			if !domain.ValidEventType(e) {
				return nil, apperrors.ErrInvalidEventType
			}
		}
		endpoint.Events = params.Events
	}
	if params.IsActive != nil {
		endpoint.IsActive = *params.IsActive
	}

	return s.repo.Update(ctx, endpoint)
}

// DeleteWebhook removes an endpoint after verifying tenant ownership.
func (s *WebhookService) DeleteWebhook(ctx context.Context, id, tenantID uuid.UUID) error {
	if _, err := s.GetWebhook(ctx, id, tenantID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validateWebhookURL(raw string) error {
	if raw == "" {
		return apperrors.ErrWebhookURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.ErrWebhookURLInvalid
	}
	return nil
}
