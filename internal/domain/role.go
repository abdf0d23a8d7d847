package domain

// =====================================================
// Platform Role Constants (Type Safety)
// =====================================================

// Role represents a tenant-scoped role (canonical identifier from DB)
type Role string

const (
	// RoleSuperAdmin is granted via provider-level metadata and can access any tenant
	RoleSuperAdmin Role = "super_admin"

	// RoleOwner has full access to a tenant including billing and member management
	RoleOwner Role = "owner"

	// RoleAdmin can manage tenant resources and members but not billing
	RoleAdmin Role = "admin"

	// RoleEditor can create and update tenant content
	RoleEditor Role = "editor"

	// RoleViewer has read-only access to tenant resources
	RoleViewer Role = "viewer"
)

// String returns the string representation of the Role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// IsOwnerRole reports whether the role carries owner-level privilege
// (super_admin subsumes owner)
func (r Role) IsOwnerRole() bool {
	return r == RoleSuperAdmin || r == RoleOwner
}

// IsAdminRole reports whether the role carries admin-level privilege
// (owner and super_admin subsume admin)
func (r Role) IsAdminRole() bool {
	return r.IsOwnerRole() || r == RoleAdmin
}
