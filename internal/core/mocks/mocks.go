package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockTenantDirectory is a mock implementation of ports.TenantDirectory
type MockTenantDirectory struct {
	mock.Mock
}

func NewMockTenantDirectory() *MockTenantDirectory {
	return &MockTenantDirectory{}
}

func (m *MockTenantDirectory) ResolveTenantMembers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockWebhookRepository is a mock implementation of ports.WebhookRepository
type MockWebhookRepository struct {
	mock.Mock
}

func NewMockWebhookRepository() *MockWebhookRepository {
	return &MockWebhookRepository{}
}

func (m *MockWebhookRepository) Create(ctx context.Context, endpoint *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookRepository) ListForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, tenantID, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookRepository) Update(ctx context.Context, endpoint *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error) {
	args := m.Called(ctx, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookEndpoint), args.Error(1)
}

func (m *MockWebhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWebhookRepository) RecordResult(ctx context.Context, id uuid.UUID, success bool) error {
	args := m.Called(ctx, id, success)
	return args.Error(0)
}

// MockWebhookSender is a mock implementation of ports.WebhookSender
type MockWebhookSender struct {
	mock.Mock
}

func NewMockWebhookSender() *MockWebhookSender {
	return &MockWebhookSender{}
}

func (m *MockWebhookSender) Send(ctx context.Context, endpoint *domain.WebhookEndpoint, envelope domain.Envelope) error {
	args := m.Called(ctx, endpoint, envelope)
	return args.Error(0)
}
