package domain

// AuthContext is the fully resolved authorization state for one request.
// It is immutable after construction, owned by the request handler, and
// never persisted.
type AuthContext struct {
	Principal        Principal       `json:"principal"`
	Tenant           TenantSummary   `json:"tenant"`
	ActiveTenantID   string          `json:"activeTenantId"`
	AvailableTenants []TenantSummary `json:"availableTenants"`
	Role             Role            `json:"role"`
	Permissions      []string        `json:"permissions"`
}
