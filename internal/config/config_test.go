package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ADMIN_EMAILS", " root@example.com, ,ops@example.com ")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("RATE_LIMIT_APPLICATION", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.RateLimitApplication)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("IDENTITY_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("JWT_TTL_MINUTES", "-5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadIndexSyncSchedule(t *testing.T) {
	t.Setenv("INDEX_SYNC_SCHEDULE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", cfg.IndexSyncSchedule)

	t.Setenv("INDEX_SYNC_SCHEDULE", "OFF")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.IndexSyncSchedule)
}

func TestLoadTracing(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLER_RATIO", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.OTelEnabled)
	assert.True(t, cfg.OTelInsecure)
	assert.Equal(t, 0.1, cfg.OTelSampleRatio)

	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "1")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 1.0, cfg.OTelSampleRatio)

	t.Setenv("OTEL_SAMPLER_RATIO", "often")
	_, err = Load()
	assert.Error(t, err)
}
