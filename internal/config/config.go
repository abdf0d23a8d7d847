package config

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Redis
	RedisURL string `env:"REDIS_URL,required"`

	// Custom token signing. Base64-encoded HMAC secret, dedicated to the
	// custom codec and to nothing else.
	CustomJWTSecret string `env:"CUSTOM_JWT_SECRET,required"`

	// Identity provider
	ProviderURL        string `env:"PROVIDER_URL,required"`
	ProviderServiceKey string `env:"PROVIDER_SERVICE_KEY,required"`

	// Super admin allow-list (CSV of email addresses)
	SuperAdminEmails string `env:"SUPER_ADMIN_EMAILS"`

	// Rate limiting
	RateLimitSalt         string `env:"RATE_LIMIT_SALT,required"`
	PublicRateLimitPerMin int    `env:"PUBLIC_RATE_LIMIT_PER_MIN" envDefault:"30"`
	UserRateLimitPerMin   int    `env:"USER_RATE_LIMIT_PER_MIN" envDefault:"100"`

	// OpenTelemetry
	OTELEnabled          bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELExporterEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELServiceName      string  `env:"OTEL_SERVICE_NAME" envDefault:"prosektor-api"`
	OTELSamplingRatio    float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0.1"`

	// Server
	Port     string `env:"PORT" envDefault:"3001"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration. A violated
// secret-separation invariant is fatal: the process must not start with a
// custom-token secret shared with any other secret material.
func (c *Config) Validate() error {
	secret, err := c.CustomSecretBytes()
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(secret, []byte(c.ProviderServiceKey)) == 1 ||
		c.CustomJWTSecret == c.ProviderServiceKey {
		return fmt.Errorf("CUSTOM_JWT_SECRET must differ from PROVIDER_SERVICE_KEY")
	}
	if subtle.ConstantTimeCompare(secret, []byte(c.RateLimitSalt)) == 1 ||
		c.CustomJWTSecret == c.RateLimitSalt {
		return fmt.Errorf("CUSTOM_JWT_SECRET must differ from RATE_LIMIT_SALT")
	}

	if c.PublicRateLimitPerMin <= 0 {
		return fmt.Errorf("PUBLIC_RATE_LIMIT_PER_MIN must be positive")
	}
	if c.UserRateLimitPerMin <= 0 {
		return fmt.Errorf("USER_RATE_LIMIT_PER_MIN must be positive")
	}

	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1")
	}

	return nil
}

// CustomSecretBytes decodes and checks the custom-token secret
func (c *Config) CustomSecretBytes() ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(c.CustomJWTSecret)
	if err != nil {
		return nil, fmt.Errorf("CUSTOM_JWT_SECRET must be valid Base64: %w", err)
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("CUSTOM_JWT_SECRET must decode to at least 32 bytes (256 bits), got %d", len(secret))
	}
	return secret, nil
}

// GetSuperAdminEmails returns the configured allow-list
func (c *Config) GetSuperAdminEmails() []string {
	if c.SuperAdminEmails == "" {
		return nil
	}
	emails := strings.Split(c.SuperAdminEmails, ",")
	result := make([]string, 0, len(emails))
	for _, email := range emails {
		trimmed := strings.TrimSpace(email)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// TelemetryEnabled reports whether telemetry export should be initialized
func (c *Config) TelemetryEnabled() bool {
	return c.OTELEnabled && c.OTELExporterEndpoint != ""
}
