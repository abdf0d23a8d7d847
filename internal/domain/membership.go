package domain

import "time"

// Membership is the (tenant, account, role) relation granting access to a
// tenant. Maps to the memberships table.
type Membership struct {
	UserID    string    `json:"userId"`
	TenantID  string    `json:"tenantId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
