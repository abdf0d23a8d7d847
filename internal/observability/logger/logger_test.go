package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_RequiresServiceName(t *testing.T) {
	_, err := New("", "info")
	assert.Error(t, err)
}

func TestSanitizeFields(t *testing.T) {
	fields := []Field{
		zap.String("token", "Bearer eyJhb..."),
		zap.String("Authorization", "Bearer abc"),
		zap.String("email", "alice@example.com"),
		zap.String("tenant_id", "t-1"),
	}

	out := sanitizeFields(fields)
	require.Len(t, out, 4)

	assert.Equal(t, "[REDACTED]", out[0].String)
	assert.Equal(t, "[REDACTED]", out[1].String)
	assert.Equal(t, "[REDACTED]", out[2].String)
	assert.Equal(t, "t-1", out[3].String)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestContextEnrichment(t *testing.T) {
	ctx := SetTenantIDInContext(context.Background(), "tenant-1")
	ctx = SetUserIDInContext(ctx, "user-1")

	assert.Equal(t, "tenant-1", GetTenantIDFromContext(ctx))
	assert.Equal(t, "user-1", GetUserIDFromContext(ctx))
	assert.Empty(t, GetTenantIDFromContext(context.Background()))
}

func TestGetLogger_RoundTrip(t *testing.T) {
	log, err := New("prosektor-api-test", "error")
	require.NoError(t, err)

	ctx := SetLoggerInContext(context.Background(), log)
	assert.Same(t, log, GetLogger(ctx))

	// Absent logger still yields a usable fallback
	assert.NotNil(t, GetLogger(context.Background()))
}
