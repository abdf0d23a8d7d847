package auth

import (
	"context"
	"net/http"

	"prosektor-api/internal/domain"
	"prosektor-api/internal/http/httperr"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/permission"
	"prosektor-api/internal/provider"
	"prosektor-api/internal/superadmin"
	"prosektor-api/internal/tenant"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// TenantOverrideHeader selects a tenant other than the principal's default.
// Header lookup is case-insensitive per net/http canonicalization.
const TenantOverrideHeader = "X-Tenant-Id"

// Authenticator wires the verification paths and the tenant resolver into
// one request-scoped authentication step.
type Authenticator struct {
	codec       *Codec
	gateway     provider.SessionGateway
	resolver    *tenant.Resolver
	superadmins *superadmin.Service
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(codec *Codec, gateway provider.SessionGateway, resolver *tenant.Resolver, superadmins *superadmin.Service) *Authenticator {
	return &Authenticator{
		codec:       codec,
		gateway:     gateway,
		resolver:    resolver,
		superadmins: superadmins,
	}
}

// TenantOverride extracts the tenant override header and rejects values
// that are not UUIDs. Every inbound operation that honors the header must
// go through this check before membership matching.
func TenantOverride(r *http.Request) (string, error) {
	override := r.Header.Get(TenantOverrideHeader)
	if override != "" {
		if _, err := uuid.Parse(override); err != nil {
			return "", httperr.New(httperr.CodeValidationError, "invalid tenant id").
				WithDetails(map[string][]string{"tenantId": {"must be a valid UUID"}}).
				WithCause(err)
		}
	}
	return override, nil
}

// Authenticate verifies the bearer token, resolves the tenant, and returns
// the complete AuthContext for the request.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (*domain.AuthContext, error) {
	token, kind := Classify(r.Header.Get("Authorization"))
	if kind == KindNone {
		return nil, httperr.New(httperr.CodeUnauthorized, "authentication required")
	}

	override, err := TenantOverride(r)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindCustom:
		return a.authenticateCustom(ctx, token, override)
	default:
		return a.authenticateSession(ctx, token, override)
	}
}

func (a *Authenticator) authenticateCustom(ctx context.Context, token, override string) (*domain.AuthContext, error) {
	claims, err := a.codec.Verify(token)
	if err != nil {
		return nil, MapError(err)
	}

	// The token pins a tenant; the header may still switch within the
	// principal's memberships.
	if override == "" {
		override = claims.TenantID
	}

	superAdmin := claims.Role == domain.RoleSuperAdmin
	return a.resolver.Resolve(ctx, claims.Principal(), override, superAdmin)
}

func (a *Authenticator) authenticateSession(ctx context.Context, token, override string) (*domain.AuthContext, error) {
	user, err := a.gateway.GetUser(ctx, token)
	if err != nil {
		return nil, httperr.New(httperr.CodeUnauthorized, "authentication required").WithCause(err)
	}

	superAdmin := a.superadmins.EnsureElevated(ctx, user)
	return a.resolver.Resolve(ctx, user.Principal(), override, superAdmin)
}

// RequireAuth rejects requests without a fully resolved AuthContext.
// authFailures may be nil when metrics are disabled.
func RequireAuth(a *Authenticator, authFailures metric.Int64Counter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := a.Authenticate(r.Context(), r)
			if err != nil {
				if authFailures != nil {
					authFailures.Add(r.Context(), 1)
				}
				log := logger.GetLogger(r.Context())
				log.Warn(r.Context(), "authentication failed",
					logger.Module("auth"),
					logger.Action("require_auth"),
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("token_prefix", maskToken(r.Header.Get("Authorization"))),
				)
				httperr.Write(w, r.Context(), err)
				return
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			ctx = logger.SetTenantIDInContext(ctx, authCtx.ActiveTenantID)
			ctx = logger.SetUserIDInContext(ctx, authCtx.Principal.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an AuthContext when a valid credential is present
// and otherwise lets the request through with none. This is the single
// place in the subsystem allowed to swallow an authentication failure.
func OptionalAuth(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := a.Authenticate(r.Context(), r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			ctx = logger.SetTenantIDInContext(ctx, authCtx.ActiveTenantID)
			ctx = logger.SetUserIDInContext(ctx, authCtx.Principal.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route on a fine-grained permission string.
// Must be mounted inside RequireAuth.
func RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := GetAuthContext(r.Context())
			if !ok {
				httperr.WriteError(w, r.Context(), httperr.CodeUnauthorized, "authentication required")
				return
			}
			if !permission.HasPermission(authCtx.Permissions, required) {
				httperr.WriteError(w, r.Context(), httperr.CodeForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
