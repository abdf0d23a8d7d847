package config

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	return &Config{
		DatabaseURL:           "postgres://localhost/prosektor",
		RedisURL:              "redis://localhost:6379",
		CustomJWTSecret:       secret,
		ProviderURL:           "https://provider.example.com",
		ProviderServiceKey:    "service-key-abc",
		RateLimitSalt:         "pepper",
		PublicRateLimitPerMin: 30,
		UserRateLimitPerMin:   100,
		OTELSamplingRatio:     0.1,
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_SecretMustBeBase64(t *testing.T) {
	cfg := validConfig()
	cfg.CustomJWTSecret = "not base64!!!"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Base64")
}

func TestValidate_SecretMinimumLength(t *testing.T) {
	cfg := validConfig()
	cfg.CustomJWTSecret = base64.StdEncoding.EncodeToString([]byte("too-short"))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestValidate_SecretSharedWithProviderKeyIsFatal(t *testing.T) {
	cfg := validConfig()
	cfg.ProviderServiceKey = "0123456789abcdef0123456789abcdef"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_SERVICE_KEY")
}

func TestValidate_SecretSharedWithSaltIsFatal(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimitSalt = "0123456789abcdef0123456789abcdef"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_SALT")
}

func TestValidate_RateLimitsMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.PublicRateLimitPerMin = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.UserRateLimitPerMin = -5
	assert.Error(t, cfg.Validate())
}

func TestValidate_SamplingRatioBounds(t *testing.T) {
	cfg := validConfig()
	cfg.OTELSamplingRatio = 1.5
	assert.Error(t, cfg.Validate())
}

func TestCustomSecretBytes(t *testing.T) {
	cfg := validConfig()

	secret, err := cfg.CustomSecretBytes()
	require.NoError(t, err)
	assert.Len(t, secret, 32)
}

func TestGetSuperAdminEmails(t *testing.T) {
	cfg := validConfig()
	cfg.SuperAdminEmails = " root@example.com, ops@example.com ,,  "

	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.GetSuperAdminEmails())

	cfg.SuperAdminEmails = ""
	assert.Nil(t, cfg.GetSuperAdminEmails())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("s", 32)))
	t.Setenv("DATABASE_URL", "postgres://localhost/prosektor")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CUSTOM_JWT_SECRET", secret)
	t.Setenv("PROVIDER_URL", "https://provider.example.com")
	t.Setenv("PROVIDER_SERVICE_KEY", "service-key-abc")
	t.Setenv("RATE_LIMIT_SALT", "pepper")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 30, cfg.PublicRateLimitPerMin)
	assert.Equal(t, 100, cfg.UserRateLimitPerMin)
	assert.False(t, cfg.OTELEnabled)
}

func TestTelemetryEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.TelemetryEnabled())

	cfg.OTELEnabled = true
	cfg.OTELExporterEndpoint = "localhost:4317"
	assert.True(t, cfg.TelemetryEnabled())
}
