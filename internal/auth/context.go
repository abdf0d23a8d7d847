package auth

import (
	"context"

	"prosektor-api/internal/domain"
)

type contextKey string

const authContextKey contextKey = "auth_context"

// WithAuthContext stores the resolved AuthContext in the request context
func WithAuthContext(ctx context.Context, authCtx *domain.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// GetAuthContext retrieves the resolved AuthContext from the request context
func GetAuthContext(ctx context.Context) (*domain.AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(*domain.AuthContext)
	return authCtx, ok
}
