package repo

import (
	"context"
	"fmt"

	"prosektor-api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepo handles database operations for tenant memberships
type MembershipRepo struct {
	pool *pgxpool.Pool
}

// NewMembershipRepo creates a new MembershipRepo instance
func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

// ListByUser retrieves all memberships of a user ordered oldest first.
// The ordering is load-bearing: tenant resolution defaults to the oldest
// membership, so it must be stable across calls.
func (r *MembershipRepo) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	query := `
		SELECT user_id, tenant_id, role, created_at, updated_at
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return memberships, nil
}

// UpsertRole writes a membership row, updating the role when the row exists
// with a different one. The conditional update keeps the repeated
// super-admin mirror write contention-free: an identical row is a no-op at
// the database level too.
func (r *MembershipRepo) UpsertRole(ctx context.Context, userID, tenantID string, role domain.Role) error {
	query := `
		INSERT INTO memberships (user_id, tenant_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, tenant_id)
		DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		WHERE memberships.role IS DISTINCT FROM EXCLUDED.role
	`

	if _, err := r.pool.Exec(ctx, query, userID, tenantID, role); err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}
