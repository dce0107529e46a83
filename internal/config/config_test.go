package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "API_PORT", "PORT", "NOTIFY_TIMEZONE", "ENVIRONMENT", "BATCH_TICK_INTERVAL"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, time.Second, cfg.BatchTickInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.AnalyticsRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.ReportTimeframe)
	assert.Equal(t, "notify.deliveries", cfg.AMQPExchange)
	assert.True(t, cfg.CacheEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("BATCH_TICK_INTERVAL", "250ms")
	t.Setenv("ANALYTICS_RETENTION_DAYS", "14")
	t.Setenv("OPTIMIZATION_REPORT_CRON", "30 7 * * 1")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("DB_POOL_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.BatchTickInterval)
	assert.Equal(t, 14*24*time.Hour, cfg.AnalyticsRetention)
	assert.Equal(t, "30 7 * * 1", cfg.ReportSchedule)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, 10, cfg.DBPoolMaxConns, "unparsable values keep the default")
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown timezone", "NOTIFY_TIMEZONE", "Mars/Olympus"},
		{"negative tick", "BATCH_TICK_INTERVAL", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
