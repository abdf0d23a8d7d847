package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prosektor-api/internal/auth"
	"prosektor-api/internal/config"
	"prosektor-api/internal/database"
	"prosektor-api/internal/http/handler"
	"prosektor-api/internal/observability/logger"
	"prosektor-api/internal/provider"
	"prosektor-api/internal/ratelimit"
	"prosektor-api/internal/repo"
	"prosektor-api/internal/superadmin"
	"prosektor-api/internal/telemetry"
	"prosektor-api/internal/tenant"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the Prosektor API HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info(ctx, "starting prosektor api",
		zap.String("service", cfg.OTELServiceName),
		zap.String("env", cfg.AppEnv),
	)

	log.Info(ctx, "running database migrations")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info(ctx, "migrations completed successfully")

	// Telemetry is strictly opt-in.
	var tracerProvider *sdktrace.TracerProvider
	var meterProvider *sdkmetric.MeterProvider
	var metrics *telemetry.Metrics

	if cfg.TelemetryEnabled() {
		log.Info(ctx, "initializing telemetry", zap.String("endpoint", cfg.OTELExporterEndpoint))

		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}

		mp, m, err := telemetry.InitMetrics(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint)
		if err != nil {
			log.Warn(ctx, "failed to initialize metrics, continuing without metrics", zap.Error(err))
		} else {
			meterProvider = mp
			metrics = m
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := meterProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown meter provider", zap.Error(err))
				}
			}()
		}

		log.Info(ctx, "telemetry initialized", zap.Bool("tracing", tracerProvider != nil), zap.Bool("metrics", metrics != nil))
	} else {
		log.Info(ctx, "telemetry disabled (opt-in only or missing endpoint)")
	}

	log.Info(ctx, "connecting to database")
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Info(ctx, "database connected")

	log.Info(ctx, "connecting to redis")
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info(ctx, "redis connected")

	// Custom token codec. Config validation already rejected a secret that
	// collides with the provider service key or the rate limit salt.
	secretBytes, err := cfg.CustomSecretBytes()
	if err != nil {
		return err
	}
	codec := auth.NewCodec(secretBytes)
	log.Info(ctx, "custom token codec initialized", zap.Int("secret_bytes", len(secretBytes)))

	gateway := provider.NewHTTPGateway(cfg.ProviderURL, cfg.ProviderServiceKey)

	tenantRepo := repo.NewTenantRepo(pool)
	membershipRepo := repo.NewMembershipRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)

	resolver := tenant.NewResolver(membershipRepo, tenantRepo, auditRepo)

	superadmins := superadmin.NewService(gateway, cfg.GetSuperAdminEmails(), log)

	// Kick off the allow-list sync without blocking startup. Later callers
	// join the same single-flight pass.
	go func() {
		if _, err := superadmins.StartupSync(ctx); err != nil {
			log.Warn(ctx, "super admin startup sync failed", zap.Error(err))
		}
	}()

	authenticator := auth.NewAuthenticator(codec, gateway, resolver, superadmins)

	tokenHandler := handler.NewTokenHandler(codec, gateway, resolver, superadmins)
	meHandler := handler.NewMeHandler()

	var rateLimitCounter metric.Int64Counter
	var authFailures metric.Int64Counter
	if metrics != nil {
		rateLimitCounter = metrics.RateLimitRejections
		authFailures = metrics.AuthFailures
	}
	rateLimiter := ratelimit.NewRedisRateLimiter(redisClient, rateLimitCounter)

	r := buildRouter(RouterDeps{
		Cfg:           cfg,
		Log:           log,
		Authenticator: authenticator,
		RateLimiter:   rateLimiter,
		Metrics:       metrics,
		AuthFailures:  authFailures,
		Pool:          pool,
		TokenHandler:  tokenHandler,
		MeHandler:     meHandler,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info(ctx, "shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}
