package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"prosektor-api/internal/auth"
	"prosektor-api/internal/http/httperr"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/ratelimit"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RateLimitConfig is one endpoint's rate-limit policy
type RateLimitConfig struct {
	Scope         string
	EndpointID    string
	Limit         int
	WindowSeconds int
}

// Limiter counts one key against a fixed-window quota
type Limiter interface {
	Check(ctx context.Context, key string, limit, windowSeconds int) (*ratelimit.Result, error)
}

// PublicRateLimit enforces IP-scoped rate limiting on unauthenticated
// endpoints. The IP is salted and hashed before it becomes a Redis key.
func PublicRateLimit(limiter Limiter, cfg RateLimitConfig, salt string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.PublicKey(cfg.Scope, cfg.EndpointID, clientIP(r), salt)
			enforce(w, r, next, limiter, cfg, key)
		})
	}
}

// UserRateLimit enforces (tenant, user)-scoped rate limiting on
// authenticated endpoints. Must be mounted inside RequireAuth.
func UserRateLimit(limiter Limiter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := auth.GetAuthContext(r.Context())
			if !ok {
				logger.GetLogger(r.Context()).Error(r.Context(), "auth context missing for rate limiting",
					logger.Module("ratelimit"),
					logger.Action("check"),
				)
				httperr.WriteError(w, r.Context(), httperr.CodeInternalError, "internal server error")
				return
			}

			key := ratelimit.UserKey(cfg.Scope, cfg.EndpointID, authCtx.ActiveTenantID, authCtx.Principal.ID)
			enforce(w, r, next, limiter, cfg, key)
		})
	}
}

func enforce(w http.ResponseWriter, r *http.Request, next http.Handler, limiter Limiter, cfg RateLimitConfig, key string) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	result, err := limiter.Check(ctx, key, cfg.Limit, cfg.WindowSeconds)
	if err != nil {
		log.Error(ctx, "rate limit check failed",
			logger.Module("ratelimit"),
			logger.Action("check"),
			zap.Error(err),
		)
		httperr.WriteError(w, ctx, httperr.CodeInternalError, "internal server error")
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	if !result.Allowed {
		trace.SpanFromContext(ctx).AddEvent("rate_limit_exceeded")

		// The advertised retry window is clamped so it is never negative
		retryAfter := time.Until(result.ResetAt).Round(time.Second)
		if retryAfter < 0 {
			retryAfter = 0
		}

		log.Warn(ctx, "rate limit exceeded",
			logger.Module("ratelimit"),
			logger.Action("check"),
			zap.String("endpoint", cfg.EndpointID),
			zap.Int("limit", cfg.Limit),
		)

		httperr.Write(w, ctx, httperr.New(httperr.CodeRateLimited, "rate limit exceeded").
			WithHeader("Retry-After", strconv.Itoa(int(retryAfter.Seconds()))))
		return
	}

	next.ServeHTTP(w, r)
}

// clientIP resolves the caller address, preferring the first hop recorded
// by the load balancer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
