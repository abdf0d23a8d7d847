package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"prosektor-api/internal/auth"
	"prosektor-api/internal/http/httperr"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/provider"
	"prosektor-api/internal/superadmin"
	"prosektor-api/internal/tenant"

	"go.uber.org/zap"
)

// TokenHandler exchanges verified platform sessions for the platform's own
// custom tokens, and refreshes access tokens from longer-lived ones.
type TokenHandler struct {
	codec       *auth.Codec
	gateway     provider.SessionGateway
	resolver    *tenant.Resolver
	superadmins *superadmin.Service
}

// NewTokenHandler creates a TokenHandler
func NewTokenHandler(codec *auth.Codec, gateway provider.SessionGateway, resolver *tenant.Resolver, superadmins *superadmin.Service) *TokenHandler {
	return &TokenHandler{
		codec:       codec,
		gateway:     gateway,
		resolver:    resolver,
		superadmins: superadmins,
	}
}

// TokenResponse is the wire contract of a successful exchange
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

type exchangeRequest struct {
	RememberMe bool `json:"remember_me"`
}

// Exchange handles POST /v1/auth/token. The Authorization header must carry
// a platform session token; the response carries a short-lived access token
// and, when remember_me was requested, a long-lived refresh token.
func (h *TokenHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	token, kind := auth.Classify(r.Header.Get("Authorization"))
	if kind != auth.KindPlatformSession {
		httperr.WriteError(w, ctx, httperr.CodeUnauthorized, "authentication required")
		return
	}

	var req exchangeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httperr.WriteValidationError(w, ctx, "invalid request body", map[string][]string{
				"body": {"must be valid JSON"},
			})
			return
		}
	}

	user, err := h.gateway.GetUser(ctx, token)
	if err != nil {
		httperr.Write(w, ctx, httperr.New(httperr.CodeUnauthorized, "authentication required").WithCause(err))
		return
	}

	override, err := auth.TenantOverride(r)
	if err != nil {
		httperr.Write(w, ctx, err)
		return
	}

	superAdmin := h.superadmins.EnsureElevated(ctx, user)
	authCtx, err := h.resolver.Resolve(ctx, user.Principal(), override, superAdmin)
	if err != nil {
		httperr.Write(w, ctx, err)
		return
	}

	payload := auth.TokenPayload{
		Subject:     authCtx.Principal.ID,
		TenantID:    authCtx.ActiveTenantID,
		Email:       authCtx.Principal.Email,
		Name:        authCtx.Principal.Name,
		Role:        authCtx.Role,
		Permissions: authCtx.Permissions,
	}

	access, err := h.codec.Sign(payload, auth.TokenAccess)
	if err != nil {
		httperr.Write(w, ctx, auth.MapError(err))
		return
	}

	response := TokenResponse{
		AccessToken: access.Token,
		ExpiresAt:   access.ExpiresAt.UTC().Format(time.RFC3339),
		TokenType:   "Bearer",
	}

	if req.RememberMe {
		refresh, err := h.codec.Sign(payload, auth.TokenRememberMe)
		if err != nil {
			httperr.Write(w, ctx, auth.MapError(err))
			return
		}
		response.RefreshToken = refresh.Token
	}

	log.Info(ctx, "token exchanged",
		logger.Module("auth"),
		logger.Action("exchange"),
		zap.String("user_id", authCtx.Principal.ID),
		zap.String("tenant_id", authCtx.ActiveTenantID),
		zap.Bool("remember_me", req.RememberMe),
	)

	writeJSON(w, http.StatusOK, response)
}

// Refresh handles POST /v1/auth/refresh. The Authorization header must
// carry a still-valid custom token; an expired one fails with the dedicated
// expiry code so clients know to fall back to a full re-login.
func (h *TokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	token, kind := auth.Classify(r.Header.Get("Authorization"))
	if kind != auth.KindCustom {
		httperr.WriteError(w, ctx, httperr.CodeUnauthorized, "authentication required")
		return
	}

	claims, err := h.codec.Verify(token)
	if err != nil {
		httperr.Write(w, ctx, auth.MapError(err))
		return
	}

	userInfo := auth.TokenPayload{
		Subject:     claims.Subject,
		TenantID:    claims.TenantID,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}

	access, err := h.codec.Refresh(token, userInfo)
	if err != nil {
		httperr.Write(w, ctx, auth.MapError(err))
		return
	}

	log.Info(ctx, "access token refreshed",
		logger.Module("auth"),
		logger.Action("refresh"),
		zap.String("user_id", claims.Subject),
	)

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: access.Token,
		ExpiresAt:   access.ExpiresAt.UTC().Format(time.RFC3339),
		TokenType:   "Bearer",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
