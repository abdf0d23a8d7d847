package domain

import (
	"time"
)

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	PlanDemo    TenantPlan = "demo"
	PlanStarter TenantPlan = "starter"
	PlanPro     TenantPlan = "pro"
)

// TenantStatus represents the lifecycle state of a tenant
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantDeleted   TenantStatus = "deleted"
)

// TenantSummary is a read-only snapshot of a tenant workspace.
// The authoritative copy lives in the datastore; this struct is never
// written back.
type TenantSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Plan      TenantPlan   `json:"plan"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// IsActive reports whether the tenant can be operated against
func (t TenantSummary) IsActive() bool {
	return t.Status == TenantActive
}
