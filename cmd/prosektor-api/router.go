package main

import (
	"context"
	"net/http"
	"time"

	"prosektor-api/internal/auth"
	"prosektor-api/internal/config"
	"prosektor-api/internal/http/handler"
	"prosektor-api/internal/http/middleware"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/ratelimit"
	"prosektor-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouterDeps holds everything buildRouter needs.
type RouterDeps struct {
	Cfg           *config.Config
	Log           *logger.Logger
	Authenticator *auth.Authenticator
	RateLimiter   *ratelimit.RedisRateLimiter
	Metrics       *telemetry.Metrics
	AuthFailures  metric.Int64Counter
	Pool          *pgxpool.Pool // readiness check

	TokenHandler *handler.TokenHandler
	MeHandler    *handler.MeHandler
}

// buildRouter wires middlewares and routes into a chi.Router.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pool == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready","note":"pool is nil"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Pool.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: database unavailable", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	publicLimit := func(endpoint string) func(http.Handler) http.Handler {
		return middleware.PublicRateLimit(deps.RateLimiter, middleware.RateLimitConfig{
			Scope:         "public",
			EndpointID:    endpoint,
			Limit:         deps.Cfg.PublicRateLimitPerMin,
			WindowSeconds: 60,
		}, deps.Cfg.RateLimitSalt)
	}

	userLimit := func(endpoint string) func(http.Handler) http.Handler {
		return middleware.UserRateLimit(deps.RateLimiter, middleware.RateLimitConfig{
			Scope:         "user",
			EndpointID:    endpoint,
			Limit:         deps.Cfg.UserRateLimitPerMin,
			WindowSeconds: 60,
		})
	}

	r.Route("/v1/auth", func(r chi.Router) {
		// Token endpoints authenticate the caller themselves, so only the
		// public IP-scoped limit applies here.
		r.With(publicLimit("token")).Post("/token", deps.TokenHandler.Exchange)
		r.With(publicLimit("refresh")).Post("/refresh", deps.TokenHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.Authenticator, deps.AuthFailures))
			r.With(userLimit("me")).Get("/me", deps.MeHandler.GetMe)
			r.With(userLimit("tenants")).Get("/tenants", deps.MeHandler.ListTenants)
		})
	})

	return r
}
