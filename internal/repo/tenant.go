package repo

import (
	"context"
	"fmt"

	"prosektor-api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantRepo handles database reads for tenant workspaces.
// Follows the repository pattern used across this package (concrete struct,
// pgxpool injected).
type TenantRepo struct {
	pool *pgxpool.Pool
}

// NewTenantRepo creates a new TenantRepo instance
func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

const tenantColumns = `id, name, slug, plan, status, created_at`

// ListAll retrieves every tenant in the system ordered oldest first.
// Only the cross-tenant super-admin path may use this; regular resolution
// goes through membership-scoped lookups.
func (r *TenantRepo) ListAll(ctx context.Context) ([]domain.TenantSummary, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	return scanTenants(rows)
}

// GetByIDs batch-fetches tenants by id in one query. Order follows
// created_at, not the input order; callers index by id.
func (r *TenantRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.TenantSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = ANY($1)
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query tenants by ids: %w", err)
	}
	defer rows.Close()

	return scanTenants(rows)
}

func scanTenants(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.TenantSummary, error) {
	var tenants []domain.TenantSummary
	for rows.Next() {
		var t domain.TenantSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Plan, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}
