package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	apperrors "github.com/opsboard/realtime-backend/internal/core/errors"
	"github.com/opsboard/realtime-backend/internal/core/mocks"
	"github.com/opsboard/realtime-backend/internal/core/ports"
	"github.com/opsboard/realtime-backend/internal/core/realtime"
	"github.com/opsboard/realtime-backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEventServiceFixture(repo *mocks.MockWebhookRepository, sender *mocks.MockWebhookSender) (*services.EventService, *realtime.Registry) {
	logger := testLogger()
	registry := realtime.NewRegistry(8, logger)
	dispatcher := realtime.NewDispatcher(registry, nil, logger)

	if repo == nil {
		return services.NewEventService(dispatcher, nil, nil, logger), registry
	}
	return services.NewEventService(dispatcher, repo, sender, logger), registry
}

func TestEventService_PublishEvent_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newEventServiceFixture(nil, nil)

	t.Run("rejects malformed event type", func(t *testing.T) {
		err := svc.PublishEvent(ctx, ports.PublishEventParams{
			EventType:    "TaskCompleted",
			RecipientIDs: []uuid.UUID{uuid.New()},
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidEventType)
	})

	t.Run("rejects missing recipients", func(t *testing.T) {
		err := svc.PublishEvent(ctx, ports.PublishEventParams{
			EventType: "tasks.completed",
		})
		assert.ErrorIs(t, err, apperrors.ErrRecipientsOrTenantRequired)
	})

	t.Run("rejects tenant broadcast without tenant", func(t *testing.T) {
		err := svc.PublishEvent(ctx, ports.PublishEventParams{
			EventType:       "tasks.completed",
			TenantBroadcast: true,
		})
		assert.ErrorIs(t, err, apperrors.ErrTenantIDRequired)
	})
}

func TestEventService_PublishEvent_DeliversToRecipients(t *testing.T) {
	ctx := context.Background()
	svc, registry := newEventServiceFixture(nil, nil)

	recipient := uuid.New()
	ch1 := registry.Connect(recipient)
	ch2 := registry.Connect(recipient)

	err := svc.PublishEvent(ctx, ports.PublishEventParams{
		EventType:    "tasks.completed",
		Payload:      map[string]any{"id": "T1"},
		RecipientIDs: []uuid.UUID{recipient},
	})
	require.NoError(t, err)

	for _, ch := range []*realtime.Channel{ch1, ch2} {
		select {
		case env := <-ch.Queue():
			assert.Equal(t, "tasks.completed", env.EventType)
			assert.Equal(t, "T1", env.Payload["id"])
		default:
			t.Fatal("expected an envelope on every channel")
		}
	}
}

func TestEventService_PublishEvent_OfflineRecipientIsNoError(t *testing.T) {
	ctx := context.Background()
	svc, registry := newEventServiceFixture(nil, nil)

	err := svc.PublishEvent(ctx, ports.PublishEventParams{
		EventType:    "tasks.completed",
		RecipientIDs: []uuid.UUID{uuid.New()},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, registry.TotalConnections())
}

func TestEventService_PublishEvent_TriggersWebhooks(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	endpoint := &domain.WebhookEndpoint{
		ID:          uuid.New(),
		TenantID:    tenantID,
		URL:         "https://example.com/hook",
		Events:      []string{"tasks.completed"},
		IsActive:    true,
		MaxAttempts: 1,
	}

	t.Run("successful delivery is recorded", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		sender := mocks.NewMockWebhookSender()
		svc, _ := newEventServiceFixture(repo, sender)

		repo.On("ListForEvent", mock.Anything, tenantID, "tasks.completed").
			Return([]*domain.WebhookEndpoint{endpoint}, nil)
		sender.On("Send", mock.Anything, endpoint, mock.AnythingOfType("domain.Envelope")).
			Return(nil)
		repo.On("RecordResult", mock.Anything, endpoint.ID, true).Return(nil)

		err := svc.PublishEvent(ctx, ports.PublishEventParams{
			EventType:    "tasks.completed",
			Payload:      map[string]any{"id": "T1"},
			TenantID:     tenantID,
			RecipientIDs: []uuid.UUID{uuid.New()},
		})
		require.NoError(t, err)
		svc.Shutdown()

		repo.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("exhausted delivery is recorded as failure", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		sender := mocks.NewMockWebhookSender()
		svc, _ := newEventServiceFixture(repo, sender)

		repo.On("ListForEvent", mock.Anything, tenantID, "tasks.completed").
			Return([]*domain.WebhookEndpoint{endpoint}, nil)
		sender.On("Send", mock.Anything, endpoint, mock.AnythingOfType("domain.Envelope")).
			Return(errors.New("connection refused"))
		repo.On("RecordResult", mock.Anything, endpoint.ID, false).Return(nil)

		err := svc.PublishEvent(ctx, ports.PublishEventParams{
			EventType:    "tasks.completed",
			TenantID:     tenantID,
			RecipientIDs: []uuid.UUID{uuid.New()},
		})
		require.NoError(t, err)
		svc.Shutdown()

		sender.AssertNumberOfCalls(t, "Send", 1)
		repo.AssertExpectations(t)
	})

	t.Run("repository failure aborts webhook fan-out silently", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		sender := mocks.NewMockWebhookSender()
		svc, _ := newEventServiceFixture(repo, sender)

		repo.On("ListForEvent", mock.Anything, tenantID, "tasks.completed").
			Return(nil, errors.New("database down"))

		err := svc.PublishEvent(ctx, ports.PublishEventParams{
			EventType:    "tasks.completed",
			TenantID:     tenantID,
			RecipientIDs: []uuid.UUID{uuid.New()},
		})
		require.NoError(t, err)
		svc.Shutdown()

		sender.AssertNotCalled(t, "Send")
	})
}
