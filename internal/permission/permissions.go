package permission

import (
	"strings"

	"prosektor-api/internal/domain"
)

// rolePermissions is the static role -> permission-string table. Two
// grammars are allowed: exact ("users:read") and prefix-wildcard
// ("inbox:*", bare "*" for everything).
var rolePermissions = map[domain.Role][]string{
	domain.RoleSuperAdmin: {"*"},
	domain.RoleOwner:      {"*"},
	domain.RoleAdmin: {
		"tenant:read",
		"tenant:update",
		"users:*",
		"pages:*",
		"jobs:*",
		"inbox:*",
		"domains:*",
		"exports:*",
	},
	domain.RoleEditor: {
		"tenant:read",
		"users:read",
		"pages:*",
		"jobs:*",
		"inbox:*",
		"exports:create",
	},
	domain.RoleViewer: {
		"tenant:read",
		"users:read",
		"pages:read",
		"jobs:read",
		"inbox:read",
	},
}

// ForRole returns the permission set for a role. Roles absent from the table
// yield an empty set: fail closed, never an error, never "*".
func ForRole(role domain.Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether any held entry authorizes required.
// A held entry matches if it is "*", or a wildcard whose prefix (the string
// before the trailing "*") is a prefix of required, or equals required
// exactly.
func HasPermission(held []string, required string) bool {
	for _, p := range held {
		if p == "*" {
			return true
		}
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(required, strings.TrimSuffix(p, "*")) {
				return true
			}
			continue
		}
		if p == required {
			return true
		}
	}
	return false
}
