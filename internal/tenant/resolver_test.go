package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosektor-api/internal/domain"
	"prosektor-api/internal/http/httperr"
)

// In-memory stores for resolver tests

type fakeMembershipStore struct {
	memberships []domain.Membership
	listErr     error
	upsertErr   error
	upserts     []domain.Membership
}

func (f *fakeMembershipStore) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Membership
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipStore) UpsertRole(ctx context.Context, userID, tenantID string, role domain.Role) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, domain.Membership{UserID: userID, TenantID: tenantID, Role: role})
	return nil
}

type fakeTenantStore struct {
	tenants []domain.TenantSummary
	listErr error
}

func (f *fakeTenantStore) ListAll(ctx context.Context) ([]domain.TenantSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tenants, nil
}

func (f *fakeTenantStore) GetByIDs(ctx context.Context, ids []string) ([]domain.TenantSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []domain.TenantSummary
	for _, t := range f.tenants {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeAuditLog struct {
	entries []auditEntry
	err     error
}

type auditEntry struct {
	actorID  string
	tenantID string
	explicit bool
}

func (f *fakeAuditLog) LogTenantAccess(ctx context.Context, actorID, tenantID string, explicit bool) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, auditEntry{actorID, tenantID, explicit})
	return nil
}

const (
	userAlice = "11111111-0000-4000-8000-000000000001"
	userRoot  = "11111111-0000-4000-8000-00000000000a"
	tenantT1  = "22222222-0000-4000-8000-000000000001"
	tenantT2  = "22222222-0000-4000-8000-000000000002"
	tenantT3  = "22222222-0000-4000-8000-000000000003"
)

func activeTenant(id, slug string, createdAt time.Time) domain.TenantSummary {
	return domain.TenantSummary{ID: id, Name: slug, Slug: slug, Plan: domain.PlanPro, Status: domain.TenantActive, CreatedAt: createdAt}
}

func alice() domain.Principal {
	return domain.Principal{ID: userAlice, Email: "alice@example.com", Name: "Alice"}
}

func fixtures() (*fakeMembershipStore, *fakeTenantStore, *fakeAuditLog) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	memberships := &fakeMembershipStore{
		memberships: []domain.Membership{
			{UserID: userAlice, TenantID: tenantT1, Role: domain.RoleEditor, CreatedAt: base},
			{UserID: userAlice, TenantID: tenantT2, Role: domain.RoleViewer, CreatedAt: base.Add(24 * time.Hour)},
		},
	}
	tenants := &fakeTenantStore{
		tenants: []domain.TenantSummary{
			activeTenant(tenantT1, "t1", base),
			activeTenant(tenantT2, "t2", base.Add(time.Hour)),
			activeTenant(tenantT3, "t3", base.Add(2*time.Hour)),
		},
	}
	return memberships, tenants, &fakeAuditLog{}
}

func requireCode(t *testing.T, err error, code string) *httperr.Error {
	t.Helper()
	require.Error(t, err)
	typed, ok := httperr.AsError(err)
	require.True(t, ok, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code)
	return typed
}

func TestResolve_DefaultsToOldestMembership(t *testing.T) {
	memberships, tenants, audit := fixtures()
	r := NewResolver(memberships, tenants, audit)

	authCtx, err := r.Resolve(context.Background(), alice(), "", false)
	require.NoError(t, err)

	assert.Equal(t, tenantT1, authCtx.ActiveTenantID)
	assert.Equal(t, domain.RoleEditor, authCtx.Role)
	assert.Len(t, authCtx.AvailableTenants, 2)
	assert.Contains(t, authCtx.Permissions, "inbox:*")
}

func TestResolve_OverrideSwitchesWithinMemberships(t *testing.T) {
	memberships, tenants, audit := fixtures()
	r := NewResolver(memberships, tenants, audit)

	authCtx, err := r.Resolve(context.Background(), alice(), tenantT2, false)
	require.NoError(t, err)

	assert.Equal(t, tenantT2, authCtx.ActiveTenantID)
	assert.Equal(t, domain.RoleViewer, authCtx.Role)
}

func TestResolve_OverrideOutsideMembershipsIsForbidden(t *testing.T) {
	memberships, tenants, audit := fixtures()
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), alice(), tenantT3, false)

	typed := requireCode(t, err, httperr.CodeForbidden)
	assert.Equal(t, "access to this tenant is denied", typed.Message)
}

func TestResolve_NoMembershipsIsGenericUnauthorized(t *testing.T) {
	_, tenants, audit := fixtures()
	r := NewResolver(&fakeMembershipStore{}, tenants, audit)

	_, err := r.Resolve(context.Background(), alice(), "", false)

	typed := requireCode(t, err, httperr.CodeUnauthorized)
	// Must be indistinguishable from a bad credential
	assert.Equal(t, "authentication required", typed.Message)
}

func TestResolve_SuspendedTenantIsForbidden(t *testing.T) {
	memberships, tenants, audit := fixtures()
	tenants.tenants[0].Status = domain.TenantSuspended
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), alice(), "", false)

	requireCode(t, err, httperr.CodeForbidden)
}

func TestResolve_MembershipStoreFailure(t *testing.T) {
	_, tenants, audit := fixtures()
	r := NewResolver(&fakeMembershipStore{listErr: errors.New("timeout")}, tenants, audit)

	_, err := r.Resolve(context.Background(), alice(), "", false)

	requireCode(t, err, httperr.CodeDatabaseError)
}

func TestResolve_MembershipReferencingMissingTenant(t *testing.T) {
	memberships, _, audit := fixtures()
	r := NewResolver(memberships, &fakeTenantStore{}, audit)

	_, err := r.Resolve(context.Background(), alice(), "", false)

	requireCode(t, err, httperr.CodeDatabaseError)
}

func TestResolvePrivileged_FallsBackToFirstActive(t *testing.T) {
	memberships, tenants, audit := fixtures()
	tenants.tenants[0].Status = domain.TenantDeleted
	r := NewResolver(memberships, tenants, audit)

	root := domain.Principal{ID: userRoot, Email: "root@example.com"}
	authCtx, err := r.Resolve(context.Background(), root, "", true)
	require.NoError(t, err)

	assert.Equal(t, tenantT2, authCtx.ActiveTenantID)
	assert.Equal(t, domain.RoleSuperAdmin, authCtx.Role)
	assert.Equal(t, []string{"*"}, authCtx.Permissions)
	assert.Len(t, authCtx.AvailableTenants, 3)
}

func TestResolvePrivileged_FallsBackToNonDeletedThenFirst(t *testing.T) {
	memberships, tenants, audit := fixtures()
	tenants.tenants[0].Status = domain.TenantDeleted
	tenants.tenants[1].Status = domain.TenantSuspended
	tenants.tenants[2].Status = domain.TenantDeleted
	r := NewResolver(memberships, tenants, audit)

	root := domain.Principal{ID: userRoot}
	authCtx, err := r.Resolve(context.Background(), root, "", true)
	require.NoError(t, err)
	assert.Equal(t, tenantT2, authCtx.ActiveTenantID)

	// Everything deleted still resolves to the first tenant
	tenants.tenants[1].Status = domain.TenantDeleted
	authCtx, err = r.Resolve(context.Background(), root, "", true)
	require.NoError(t, err)
	assert.Equal(t, tenantT1, authCtx.ActiveTenantID)
}

func TestResolvePrivileged_OverrideAnyTenant(t *testing.T) {
	memberships, tenants, audit := fixtures()
	r := NewResolver(memberships, tenants, audit)

	root := domain.Principal{ID: userRoot}
	authCtx, err := r.Resolve(context.Background(), root, tenantT3, true)
	require.NoError(t, err)
	assert.Equal(t, tenantT3, authCtx.ActiveTenantID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, userRoot, audit.entries[0].actorID)
	assert.Equal(t, tenantT3, audit.entries[0].tenantID)
	assert.True(t, audit.entries[0].explicit)
}

func TestResolvePrivileged_UnknownOverrideIsForbidden(t *testing.T) {
	memberships, tenants, audit := fixtures()
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), domain.Principal{ID: userRoot}, "33333333-0000-4000-8000-000000000009", true)

	requireCode(t, err, httperr.CodeForbidden)
	assert.Empty(t, audit.entries)
}

func TestResolvePrivileged_NoTenants(t *testing.T) {
	memberships, _, audit := fixtures()
	r := NewResolver(memberships, &fakeTenantStore{}, audit)

	_, err := r.Resolve(context.Background(), domain.Principal{ID: userRoot}, "", true)

	requireCode(t, err, httperr.CodeNoTenant)
}

func TestResolvePrivileged_MirrorsOwnerMembership(t *testing.T) {
	memberships, tenants, audit := fixtures()
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), domain.Principal{ID: userRoot}, tenantT1, true)
	require.NoError(t, err)

	require.Len(t, memberships.upserts, 1)
	assert.Equal(t, userRoot, memberships.upserts[0].UserID)
	assert.Equal(t, tenantT1, memberships.upserts[0].TenantID)
	assert.Equal(t, domain.RoleOwner, memberships.upserts[0].Role)
}

func TestResolvePrivileged_MirrorSkippedWhenAlreadyOwner(t *testing.T) {
	memberships, tenants, audit := fixtures()
	memberships.memberships = append(memberships.memberships, domain.Membership{
		UserID: userRoot, TenantID: tenantT1, Role: domain.RoleOwner,
	})
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), domain.Principal{ID: userRoot}, tenantT1, true)
	require.NoError(t, err)

	assert.Empty(t, memberships.upserts)
	assert.Len(t, audit.entries, 1)
}

func TestResolvePrivileged_AuditFailureFailsResolution(t *testing.T) {
	memberships, tenants, audit := fixtures()
	audit.err = errors.New("insert failed")
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), domain.Principal{ID: userRoot}, tenantT1, true)

	requireCode(t, err, httperr.CodeDatabaseError)
}

func TestResolvePrivileged_MirrorFailureFailsResolution(t *testing.T) {
	memberships, tenants, audit := fixtures()
	memberships.upsertErr = errors.New("insert failed")
	r := NewResolver(memberships, tenants, audit)

	_, err := r.Resolve(context.Background(), domain.Principal{ID: userRoot}, tenantT1, true)

	requireCode(t, err, httperr.CodeDatabaseError)
	assert.Empty(t, audit.entries)
}
