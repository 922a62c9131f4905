package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsboard/realtime-backend/internal/core/ports"
)

// TenantDirectory resolves tenant membership from the users table. The user
// entities themselves are owned by the identity collaborator; this adapter
// only reads the tenant -> subscriber mapping the dispatcher needs for
// broadcasts.
type TenantDirectory struct {
	pool *pgxpool.Pool
}

var _ ports.TenantDirectory = (*TenantDirectory)(nil)

// NewTenantDirectory creates a new directory over the given pool.
func NewTenantDirectory(pool *pgxpool.Pool) *TenantDirectory {
	return &TenantDirectory{pool: pool}
}

// ResolveTenantMembers returns the IDs of the tenant's active users.
func (d *TenantDirectory) ResolveTenantMembers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id FROM users WHERE tenant_id = $1 AND is_active`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant members: %w", err)
	}
	return members, nil
}
