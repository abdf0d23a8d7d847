package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepo handles audit log storage
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepo creates a new AuditRepo
func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// LogAction logs an action to the audit log
func (r *AuditRepo) LogAction(
	ctx context.Context,
	tenantID, actorID, action, resourceType string,
	resourceID *string,
	metadata map[string]interface{},
) error {
	var metadataJSON []byte
	var err error

	if metadata != nil {
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (
			id, tenant_id, actor_id, action, resource_type, resource_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		uuid.NewString(), tenantID, actorID, action, resourceType, resourceID, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}

	return nil
}

// LogTenantAccess records a privileged principal entering a tenant, noting
// whether the tenant was explicitly requested or auto-resolved.
func (r *AuditRepo) LogTenantAccess(ctx context.Context, actorID, tenantID string, explicit bool) error {
	return r.LogAction(ctx, tenantID, actorID, "super_admin_tenant_access", "tenant", &tenantID,
		map[string]interface{}{
			"explicit_override": explicit,
		})
}
