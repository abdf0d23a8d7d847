package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prosektor-api/internal/domain"
)

func TestForRole_PrivilegedRolesGetEverything(t *testing.T) {
	assert.Equal(t, []string{"*"}, ForRole(domain.RoleSuperAdmin))
	assert.Equal(t, []string{"*"}, ForRole(domain.RoleOwner))
}

func TestForRole_UnknownRoleFailsClosed(t *testing.T) {
	perms := ForRole(domain.Role("intern"))
	assert.NotNil(t, perms)
	assert.Empty(t, perms)
}

func TestForRole_ReturnsACopy(t *testing.T) {
	perms := ForRole(domain.RoleViewer)
	perms[0] = "everything:*"

	again := ForRole(domain.RoleViewer)
	assert.Equal(t, "tenant:read", again[0])
}

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name     string
		held     []string
		required string
		want     bool
	}{
		{"bare wildcard grants anything", []string{"*"}, "domains:delete", true},
		{"exact match", []string{"users:read"}, "users:read", true},
		{"exact is not a prefix grant", []string{"users:read"}, "users:readall", false},
		{"prefix wildcard", []string{"inbox:*"}, "inbox:messages:delete", true},
		{"prefix wildcard wrong namespace", []string{"inbox:*"}, "users:read", false},
		{"empty set denies", []string{}, "tenant:read", false},
		{"nil set denies", nil, "tenant:read", false},
		{"later entry can grant", []string{"pages:read", "jobs:*"}, "jobs:run", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.held, tc.required))
		})
	}
}

func TestRoleGrants(t *testing.T) {
	cases := []struct {
		role     domain.Role
		required string
		want     bool
	}{
		{domain.RoleAdmin, "users:invite", true},
		{domain.RoleAdmin, "tenant:delete", false},
		{domain.RoleEditor, "inbox:reply", true},
		{domain.RoleEditor, "users:invite", false},
		{domain.RoleViewer, "pages:read", true},
		{domain.RoleViewer, "pages:update", false},
	}

	for _, tc := range cases {
		t.Run(string(tc.role)+" "+tc.required, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(ForRole(tc.role), tc.required))
		})
	}
}
