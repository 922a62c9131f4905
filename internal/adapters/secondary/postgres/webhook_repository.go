package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsboard/realtime-backend/internal/core/domain"
	apperrors "github.com/opsboard/realtime-backend/internal/core/errors"
	"github.com/opsboard/realtime-backend/internal/core/ports"
)

// WebhookRepository is a pgx-backed implementation of ports.WebhookRepository.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

var _ ports.WebhookRepository = (*WebhookRepository)(nil)

// NewWebhookRepository creates a new webhook repository.
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

const webhookColumns = `
	id, tenant_id, url, secret, events, is_active, headers,
	max_attempts, timeout_seconds, created_by_id, created_at,
	last_triggered_at, success_count, failure_count`

// Create inserts a new webhook endpoint.
func (r *WebhookRepository) Create(ctx context.Context, endpoint *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error) {
	query := `
		INSERT INTO webhook_endpoints (
			id, tenant_id, url, secret, events, is_active, headers,
			max_attempts, timeout_seconds, created_by_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + webhookColumns

	headers := endpoint.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	row := r.pool.QueryRow(ctx, query,
		endpoint.ID,
		endpoint.TenantID,
		endpoint.URL,
		endpoint.Secret,
		endpoint.Events,
		endpoint.IsActive,
		headers,
		endpoint.MaxAttempts,
		int(endpoint.Timeout/time.Second),
		endpoint.CreatedByID,
		endpoint.CreatedAt,
	)

	created, err := scanWebhook(row)
	if err != nil {
		return nil, fmt.Errorf("insert webhook endpoint: %w", err)
	}
	return created, nil
}

// GetByID fetches one endpoint by primary key.
func (r *WebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookEndpoint, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhook_endpoints WHERE id = $1`

	endpoint, err := scanWebhook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("get webhook endpoint: %w", err)
	}
	return endpoint, nil
}

// ListByTenant returns all endpoints of a tenant, newest first.
func (r *WebhookRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.WebhookEndpoint, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhook_endpoints
		WHERE tenant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list webhook endpoints: %w", err)
	}
	defer rows.Close()

	return collectWebhooks(rows)
}

// ListForEvent returns the active endpoints of a tenant subscribed to the
// given event type.
func (r *WebhookRepository) ListForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]*domain.WebhookEndpoint, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhook_endpoints
		WHERE tenant_id = $1 AND is_active AND $2 = ANY(events)
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, tenantID, eventType)
	if err != nil {
		return nil, fmt.Errorf("list webhook endpoints for event: %w", err)
	}
	defer rows.Close()

	return collectWebhooks(rows)
}

// Update persists the mutable fields of an endpoint.
func (r *WebhookRepository) Update(ctx context.Context, endpoint *domain.WebhookEndpoint) (*domain.WebhookEndpoint, error) {
	query := `
		UPDATE webhook_endpoints
		SET url = $2, secret = $3, events = $4, is_active = $5, headers = $6,
		    max_attempts = $7, timeout_seconds = $8
		WHERE id = $1
		RETURNING ` + webhookColumns

	headers := endpoint.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	row := r.pool.QueryRow(ctx, query,
		endpoint.ID,
		endpoint.URL,
		endpoint.Secret,
		endpoint.Events,
		endpoint.IsActive,
		headers,
		endpoint.MaxAttempts,
		int(endpoint.Timeout/time.Second),
	)

	updated, err := scanWebhook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("update webhook endpoint: %w", err)
	}
	return updated, nil
}

// Delete removes an endpoint. Deleting a missing endpoint is not an error.
func (r *WebhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM webhook_endpoints WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete webhook endpoint: %w", err)
	}
	return nil
}

// RecordResult bumps the delivery counters after a final outcome.
func (r *WebhookRepository) RecordResult(ctx context.Context, id uuid.UUID, success bool) error {
	query := `
		UPDATE webhook_endpoints
		SET success_count = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
		    failure_count = failure_count + CASE WHEN $2 THEN 0 ELSE 1 END,
		    last_triggered_at = now()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, success); err != nil {
		return fmt.Errorf("record webhook result: %w", err)
	}
	return nil
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row rowScanner) (*domain.WebhookEndpoint, error) {
	var (
		endpoint       domain.WebhookEndpoint
		timeoutSeconds int
	)
	err := row.Scan(
		&endpoint.ID,
		&endpoint.TenantID,
		&endpoint.URL,
		&endpoint.Secret,
		&endpoint.Events,
		&endpoint.IsActive,
		&endpoint.Headers,
		&endpoint.MaxAttempts,
		&timeoutSeconds,
		&endpoint.CreatedByID,
		&endpoint.CreatedAt,
		&endpoint.LastTriggeredAt,
		&endpoint.SuccessCount,
		&endpoint.FailureCount,
	)
	if err != nil {
		return nil, err
	}
	endpoint.Timeout = time.Duration(timeoutSeconds) * time.Second
	return &endpoint, nil
}

func collectWebhooks(rows pgx.Rows) ([]*domain.WebhookEndpoint, error) {
	var endpoints []*domain.WebhookEndpoint
	for rows.Next() {
		endpoint, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook endpoint: %w", err)
		}
		endpoints = append(endpoints, endpoint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook endpoints: %w", err)
	}
	return endpoints, nil
}
