package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	apperrors "github.com/opsboard/realtime-backend/internal/core/errors"
	"github.com/opsboard/realtime-backend/internal/core/mocks"
	"github.com/opsboard/realtime-backend/internal/core/ports"
	"github.com/opsboard/realtime-backend/internal/core/retry"
	"github.com/opsboard/realtime-backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWebhookService_CreateWebhook(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("success with defaults", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.WebhookEndpoint")).
			Return(&domain.WebhookEndpoint{ID: uuid.New()}, nil).
			Run(func(args mock.Arguments) {
				endpoint := args.Get(1).(*domain.WebhookEndpoint)
				assert.Equal(t, tenantID, endpoint.TenantID)
				assert.True(t, endpoint.IsActive)
				assert.Equal(t, retry.DefaultMaxAttempts, endpoint.MaxAttempts)
				assert.Equal(t, 30*time.Second, endpoint.Timeout)
			})

		created, err := svc.CreateWebhook(ctx, ports.CreateWebhookParams{
			TenantID: tenantID,
			URL:      "https://example.com/hook",
			Secret:   "s3cret",
			Events:   []string{"tasks.completed", "comments.added"},
		})

		require.NoError(t, err)
		assert.NotNil(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("rejects missing URL", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		_, err := svc.CreateWebhook(ctx, ports.CreateWebhookParams{
			TenantID: tenantID,
			Events:   []string{"tasks.completed"},
		})

		assert.ErrorIs(t, err, apperrors.ErrWebhookURLRequired)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects non-http URL", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		_, err := svc.CreateWebhook(ctx, ports.CreateWebhookParams{
			TenantID: tenantID,
			URL:      "ftp://example.com/hook",
			Events:   []string{"tasks.completed"},
		})

		assert.ErrorIs(t, err, apperrors.ErrWebhookURLInvalid)
	})

	t.Run("rejects empty event list", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		_, err := svc.CreateWebhook(ctx, ports.CreateWebhookParams{
			TenantID: tenantID,
			URL:      "https://example.com/hook",
		})

		assert.ErrorIs(t, err, apperrors.ErrWebhookEventsEmpty)
	})

	t.Run("rejects malformed event type", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		_, err := svc.CreateWebhook(ctx, ports.CreateWebhookParams{
			TenantID: tenantID,
			URL:      "https://example.com/hook",
			Events:   []string{"TasksCompleted"},
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidEventType)
	})

	t.Run("rejects missing tenant", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		_, err := svc.CreateWebhook(ctx, ports.CreateWebhookParams{
			URL:    "https://example.com/hook",
			Events: []string{"tasks.completed"},
		})

		assert.ErrorIs(t, err, apperrors.ErrTenantIDRequired)
	})
}

func TestWebhookService_GetWebhook(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	webhookID := uuid.New()

	t.Run("returns own endpoint", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		expected := &domain.WebhookEndpoint{ID: webhookID, TenantID: tenantID}
		repo.On("GetByID", ctx, webhookID).Return(expected, nil)

		endpoint, err := svc.GetWebhook(ctx, webhookID, tenantID)

		require.NoError(t, err)
		assert.Equal(t, expected, endpoint)
	})

	t.Run("cross-tenant access looks like not found", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		repo.On("GetByID", ctx, webhookID).
			Return(&domain.WebhookEndpoint{ID: webhookID, TenantID: uuid.New()}, nil)

		endpoint, err := svc.GetWebhook(ctx, webhookID, tenantID)

		assert.Nil(t, endpoint)
		assert.ErrorIs(t, err, apperrors.ErrWebhookNotFound)
	})
}

func TestWebhookService_UpdateWebhook(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	webhookID := uuid.New()

	t.Run("applies partial update", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		existing := &domain.WebhookEndpoint{
			ID:       webhookID,
			TenantID: tenantID,
			URL:      "https://old.example.com/hook",
			Events:   []string{"tasks.completed"},
			IsActive: true,
		}
		repo.On("GetByID", ctx, webhookID).Return(existing, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*domain.WebhookEndpoint")).
			Return(existing, nil)

		inactive := false
		_, err := svc.UpdateWebhook(ctx, webhookID, tenantID, ports.UpdateWebhookParams{
			IsActive: &inactive,
		})

		require.NoError(t, err)
		assert.False(t, existing.IsActive)
		assert.Equal(t, "https://old.example.com/hook", existing.URL)
	})

	t.Run("rejects invalid replacement URL", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		repo.On("GetByID", ctx, webhookID).
			Return(&domain.WebhookEndpoint{ID: webhookID, TenantID: tenantID}, nil)

		bad := "not-a-url"
		_, err := svc.UpdateWebhook(ctx, webhookID, tenantID, ports.UpdateWebhookParams{URL: &bad})

		assert.ErrorIs(t, err, apperrors.ErrWebhookURLInvalid)
		repo.AssertNotCalled(t, "Update")
	})
}

func TestWebhookService_DeleteWebhook(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	webhookID := uuid.New()

	t.Run("deletes own endpoint", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		repo.On("GetByID", ctx, webhookID).
			Return(&domain.WebhookEndpoint{ID: webhookID, TenantID: tenantID}, nil)
		repo.On("Delete", ctx, webhookID).Return(nil)

		require.NoError(t, svc.DeleteWebhook(ctx, webhookID, tenantID))
		repo.AssertExpectations(t)
	})

	t.Run("refuses cross-tenant delete", func(t *testing.T) {
		repo := mocks.NewMockWebhookRepository()
		svc := services.NewWebhookService(repo)

		repo.On("GetByID", ctx, webhookID).
			Return(&domain.WebhookEndpoint{ID: webhookID, TenantID: uuid.New()}, nil)

		err := svc.DeleteWebhook(ctx, webhookID, tenantID)

		assert.ErrorIs(t, err, apperrors.ErrWebhookNotFound)
		repo.AssertNotCalled(t, "Delete")
	})
}
