package handler

import (
	"net/http"

	"prosektor-api/internal/auth"
	"prosektor-api/internal/domain"
	"prosektor-api/internal/http/httperr"
)

// MeHandler exposes the resolved authorization state of the current request
type MeHandler struct{}

// NewMeHandler creates a MeHandler
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

type meData struct {
	*domain.AuthContext

	// Coarse-grained flags for route gating, distinct from the permission list
	IsOwner bool `json:"is_owner"`
	IsAdmin bool `json:"is_admin"`
}

type meResponse struct {
	OK   bool   `json:"ok"`
	Data meData `json:"data"`
}

// GetMe handles GET /v1/auth/me
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authCtx, ok := auth.GetAuthContext(ctx)
	if !ok {
		httperr.WriteError(w, ctx, httperr.CodeUnauthorized, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{OK: true, Data: meData{
		AuthContext: authCtx,
		IsOwner:     authCtx.Role.IsOwnerRole(),
		IsAdmin:     authCtx.Role.IsAdminRole(),
	}})
}

type tenantsResponse struct {
	OK   bool                   `json:"ok"`
	Data []domain.TenantSummary `json:"data"`
}

// ListTenants handles GET /v1/auth/tenants
func (h *MeHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authCtx, ok := auth.GetAuthContext(ctx)
	if !ok {
		httperr.WriteError(w, ctx, httperr.CodeUnauthorized, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, tenantsResponse{OK: true, Data: authCtx.AvailableTenants})
}
