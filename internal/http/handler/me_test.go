package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prosektor-api/internal/auth"
	"prosektor-api/internal/domain"
	"prosektor-api/internal/http/httperr"
)

func authedRequest(method, target string) *http.Request {
	authCtx := &domain.AuthContext{
		Principal:      domain.Principal{ID: thUser, Email: "alice@example.com"},
		Tenant:         domain.TenantSummary{ID: thTenant1, Slug: "t1", Status: domain.TenantActive},
		ActiveTenantID: thTenant1,
		AvailableTenants: []domain.TenantSummary{
			{ID: thTenant1, Slug: "t1", Status: domain.TenantActive},
			{ID: thTenant2, Slug: "t2", Status: domain.TenantActive},
		},
		Role:        domain.RoleEditor,
		Permissions: []string{"inbox:*"},
	}
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(auth.WithAuthContext(context.Background(), authCtx))
}

func TestGetMe(t *testing.T) {
	h := NewMeHandler()

	rec := httptest.NewRecorder()
	h.GetMe(rec, authedRequest(http.MethodGet, "/v1/auth/me"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, thUser, resp.Data.Principal.ID)
	assert.Equal(t, thTenant1, resp.Data.ActiveTenantID)
	assert.Equal(t, domain.RoleEditor, resp.Data.Role)
	assert.False(t, resp.Data.IsOwner)
	assert.False(t, resp.Data.IsAdmin)
}

func TestGetMe_OwnerFlags(t *testing.T) {
	h := NewMeHandler()

	authCtx := &domain.AuthContext{
		Principal:      domain.Principal{ID: thUser, Email: "alice@example.com"},
		Tenant:         domain.TenantSummary{ID: thTenant1, Slug: "t1", Status: domain.TenantActive},
		ActiveTenantID: thTenant1,
		Role:           domain.RoleOwner,
		Permissions:    []string{"*"},
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req = req.WithContext(auth.WithAuthContext(context.Background(), authCtx))

	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsOwner)
	assert.True(t, resp.Data.IsAdmin)
}

func TestGetMe_NoAuthContext(t *testing.T) {
	h := NewMeHandler()

	rec := httptest.NewRecorder()
	h.GetMe(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httperr.CodeUnauthorized, errorCode(t, rec.Body.Bytes()))
}

func TestListTenants(t *testing.T) {
	h := NewMeHandler()

	rec := httptest.NewRecorder()
	h.ListTenants(rec, authedRequest(http.MethodGet, "/v1/auth/tenants"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp tenantsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "t2", resp.Data[1].Slug)
}

func TestListTenants_NoAuthContext(t *testing.T) {
	h := NewMeHandler()

	rec := httptest.NewRecorder()
	h.ListTenants(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/tenants", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
