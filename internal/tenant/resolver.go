package tenant

import (
	"context"
	"fmt"

	"prosektor-api/internal/domain"
	"prosektor-api/internal/http/httperr"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/permission"

	"go.uber.org/zap"
)

// genericUnauthorizedMsg is shared by "no credential", "bad credential" and
// "no accessible tenant" so responses never reveal whether an account or
// tenant exists.
const genericUnauthorizedMsg = "authentication required"

// MembershipStore is the membership surface the resolver needs
type MembershipStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	UpsertRole(ctx context.Context, userID, tenantID string, role domain.Role) error
}

// TenantStore is the tenant surface the resolver needs
type TenantStore interface {
	ListAll(ctx context.Context) ([]domain.TenantSummary, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.TenantSummary, error)
}

// AuditLog records privileged cross-tenant access
type AuditLog interface {
	LogTenantAccess(ctx context.Context, actorID, tenantID string, explicit bool) error
}

// Resolver turns a verified principal plus an optional tenant override into
// exactly one authorized AuthContext. Both the member path and the
// super-admin path run through here; there is deliberately no second
// implementation of this algorithm anywhere.
type Resolver struct {
	memberships MembershipStore
	tenants     TenantStore
	audit       AuditLog
}

// NewResolver creates a Resolver
func NewResolver(memberships MembershipStore, tenants TenantStore, audit AuditLog) *Resolver {
	return &Resolver{
		memberships: memberships,
		tenants:     tenants,
		audit:       audit,
	}
}

// Resolve produces the AuthContext for a principal. override is an already
// format-validated tenant id from the X-Tenant-Id header, empty when absent.
// superAdmin must come from a provider-verified claim, never from profile
// data.
func (r *Resolver) Resolve(ctx context.Context, principal domain.Principal, override string, superAdmin bool) (*domain.AuthContext, error) {
	if superAdmin {
		return r.resolvePrivileged(ctx, principal, override)
	}
	return r.resolveMember(ctx, principal, override)
}

func (r *Resolver) resolveMember(ctx context.Context, principal domain.Principal, override string) (*domain.AuthContext, error) {
	memberships, err := r.memberships.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, httperr.New(httperr.CodeDatabaseError, "failed to load memberships").WithCause(err)
	}

	if len(memberships) == 0 {
		return nil, httperr.New(httperr.CodeUnauthorized, genericUnauthorizedMsg)
	}

	// Oldest membership is the stable default selection
	selected := memberships[0]
	if override != "" {
		found := false
		for _, m := range memberships {
			if m.TenantID == override {
				selected = m
				found = true
				break
			}
		}
		if !found {
			// FORBIDDEN, not NOT_FOUND: whether the tenant exists at all is
			// not this caller's to know.
			return nil, httperr.New(httperr.CodeForbidden, "access to this tenant is denied")
		}
	}

	tenantIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		tenantIDs = append(tenantIDs, m.TenantID)
	}

	tenants, err := r.tenants.GetByIDs(ctx, tenantIDs)
	if err != nil {
		return nil, httperr.New(httperr.CodeDatabaseError, "failed to load tenants").WithCause(err)
	}

	var active *domain.TenantSummary
	for i := range tenants {
		if tenants[i].ID == selected.TenantID {
			active = &tenants[i]
			break
		}
	}
	if active == nil {
		return nil, httperr.New(httperr.CodeDatabaseError, "failed to load tenants").
			WithCause(fmt.Errorf("membership references missing tenant %s", selected.TenantID))
	}

	if !active.IsActive() {
		return nil, httperr.New(httperr.CodeForbidden, "access to this tenant is denied")
	}

	return &domain.AuthContext{
		Principal:        principal,
		Tenant:           *active,
		ActiveTenantID:   active.ID,
		AvailableTenants: tenants,
		Role:             selected.Role,
		Permissions:      permission.ForRole(selected.Role),
	}, nil
}

func (r *Resolver) resolvePrivileged(ctx context.Context, principal domain.Principal, override string) (*domain.AuthContext, error) {
	tenants, err := r.tenants.ListAll(ctx)
	if err != nil {
		return nil, httperr.New(httperr.CodeDatabaseError, "failed to load tenants").WithCause(err)
	}

	if len(tenants) == 0 {
		return nil, httperr.New(httperr.CodeNoTenant, "no tenant exists to resolve to")
	}

	active, err := selectPrivilegedTenant(tenants, override)
	if err != nil {
		return nil, err
	}

	if err := r.mirrorOwnerMembership(ctx, principal.ID, active.ID); err != nil {
		return nil, err
	}

	if err := r.audit.LogTenantAccess(ctx, principal.ID, active.ID, override != ""); err != nil {
		return nil, httperr.New(httperr.CodeDatabaseError, "failed to record audit entry").WithCause(err)
	}

	logger.GetLogger(ctx).Info(ctx, "super admin tenant access",
		logger.Module("tenant"),
		logger.Action("resolve"),
		zap.String("tenant_id", active.ID),
		zap.Bool("explicit_override", override != ""),
	)

	return &domain.AuthContext{
		Principal:        principal,
		Tenant:           active,
		ActiveTenantID:   active.ID,
		AvailableTenants: tenants,
		Role:             domain.RoleSuperAdmin,
		Permissions:      permission.ForRole(domain.RoleSuperAdmin),
	}, nil
}

// selectPrivilegedTenant picks the tenant a super admin lands in. The
// fallback chain (override, first active, first non-deleted, first)
// guarantees some usable tenant is always resolved when any exists.
func selectPrivilegedTenant(tenants []domain.TenantSummary, override string) (domain.TenantSummary, error) {
	if override != "" {
		for _, t := range tenants {
			if t.ID == override {
				return t, nil
			}
		}
		return domain.TenantSummary{}, httperr.New(httperr.CodeForbidden, "access to this tenant is denied")
	}

	for _, t := range tenants {
		if t.Status == domain.TenantActive {
			return t, nil
		}
	}
	for _, t := range tenants {
		if t.Status != domain.TenantDeleted {
			return t, nil
		}
	}
	return tenants[0], nil
}

// mirrorOwnerMembership writes an owner membership for the super admin into
// the resolved tenant, skipping the write when it would be a no-op.
func (r *Resolver) mirrorOwnerMembership(ctx context.Context, userID, tenantID string) error {
	memberships, err := r.memberships.ListByUser(ctx, userID)
	if err != nil {
		return httperr.New(httperr.CodeDatabaseError, "failed to load memberships").WithCause(err)
	}

	for _, m := range memberships {
		if m.TenantID == tenantID && m.Role == domain.RoleOwner {
			return nil
		}
	}

	if err := r.memberships.UpsertRole(ctx, userID, tenantID, domain.RoleOwner); err != nil {
		return httperr.New(httperr.CodeDatabaseError, "failed to mirror membership").WithCause(err)
	}
	return nil
}
