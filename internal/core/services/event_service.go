package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	apperrors "github.com/opsboard/realtime-backend/internal/core/errors"
	"github.com/opsboard/realtime-backend/internal/core/ports"
	"github.com/opsboard/realtime-backend/internal/core/realtime"
	"github.com/opsboard/realtime-backend/internal/core/retry"
)

// EventService orchestrates the two delivery paths of a published event:
// best-effort fan-out to live connections and retried delivery to webhook
// endpoints.
type EventService struct {
	dispatcher  *realtime.Dispatcher
	webhookRepo ports.WebhookRepository
	sender      ports.WebhookSender
	logger      *slog.Logger

	// wg tracks in-flight webhook deliveries so Shutdown can drain them.
	wg sync.WaitGroup
}

var _ ports.EventService = (*EventService)(nil)

// NewEventService creates a new event service. webhookRepo and sender may be
// nil when outbound delivery is not wired; live fan-out still works.
func NewEventService(
	dispatcher *realtime.Dispatcher,
	webhookRepo ports.WebhookRepository,
	sender ports.WebhookSender,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		dispatcher:  dispatcher,
		webhookRepo: webhookRepo,
		sender:      sender,
		logger:      logger.With("component", "event_service"),
	}
}

// PublishEvent validates the event and fans it out. Only validation errors
// are returned; delivery failures are cleanup events or retried in the
// background, never caller-visible.
func (s *EventService) PublishEvent(ctx context.Context, params ports.PublishEventParams) error {
	if !domain.ValidEventType(params.EventType) {
		return apperrors.ErrInvalidEventType
	}
	if len(params.RecipientIDs) == 0 && !params.TenantBroadcast {
		return apperrors.ErrRecipientsOrTenantRequired
	}
	if params.TenantBroadcast && params.TenantID == uuid.Nil {
		return apperrors.ErrTenantIDRequired
	}

	if params.TenantBroadcast {
		s.dispatcher.PublishToTenant(ctx, params.TenantID, params.EventType, params.Payload)
	}
	for _, recipient := range params.RecipientIDs {
		s.dispatcher.Publish(recipient, params.EventType, params.Payload)
	}

	if s.webhookRepo != nil && s.sender != nil && params.TenantID != uuid.Nil {
		s.wg.Add(1)
		go s.deliverWebhooks(params.TenantID, params.EventType, params.Payload)
	}

	return nil
}

// deliverWebhooks pushes the event to every matching endpoint of the tenant.
// Each endpoint retries independently; one stuck endpoint never delays the
// others. Runs detached from the publishing request's context.
func (s *EventService) deliverWebhooks(tenantID uuid.UUID, eventType string, payload map[string]any) {
	defer s.wg.Done()
	ctx := context.Background()

	endpoints, err := s.webhookRepo.ListForEvent(ctx, tenantID, eventType)
	if err != nil {
		s.logger.Error("failed to list webhook endpoints",
			"tenant_id", tenantID,
			"event_type", eventType,
			"error", err,
		)
		return
	}

	for _, endpoint := range endpoints {
		endpoint := endpoint
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.deliverToEndpoint(ctx, endpoint, eventType, payload)
		}()
	}
}

func (s *EventService) deliverToEndpoint(ctx context.Context, endpoint *domain.WebhookEndpoint, eventType string, payload map[string]any) {
	name := fmt.Sprintf("webhook:%s", endpoint.ID)

	_, err := retry.Do(ctx, s.logger, name, endpoint.MaxAttempts, func(ctx context.Context) (struct{}, error) {
		// A fresh envelope per attempt so retries carry the actual send time.
		return struct{}{}, s.sender.Send(ctx, endpoint, domain.NewEnvelope(eventType, payload))
	})

	if recErr := s.webhookRepo.RecordResult(ctx, endpoint.ID, err == nil); recErr != nil {
		s.logger.Error("failed to record webhook delivery result",
			"webhook_id", endpoint.ID,
			"error", recErr,
		)
	}

	if err != nil {
		s.logger.Error("webhook delivery abandoned",
			"webhook_id", endpoint.ID,
			"url", endpoint.URL,
			"event_type", eventType,
			"error", err,
		)
	}
}

// Shutdown blocks until all in-flight webhook deliveries have finished.
func (s *EventService) Shutdown() {
	s.wg.Wait()
}
