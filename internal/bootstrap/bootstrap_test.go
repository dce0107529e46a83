package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/delivery"
	"github.com/albapepper/notify-engine/internal/settings"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenInMemory(t *testing.T) {
	d, err := Open(context.Background(), &config.Config{Timezone: "UTC"}, Options{Sinks: true}, discard)
	require.NoError(t, err)
	defer d.Close()

	assert.Nil(t, d.Pool)
	assert.IsType(t, &analytics.MemoryStore{}, d.Analytics)
	require.IsType(t, delivery.MultiSink{}, d.Sink)
	assert.Len(t, d.Sink.(delivery.MultiSink), 1, "log sink only")
	assert.Equal(t, settings.DefaultScheduleConfig(), d.Settings.Schedule())
	assert.NotNil(t, d.Engine(discard))
}

func TestOpenLoadsRedisSettings(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet(settings.DefaultRedisHash, settings.KeyQuietStart, "21")

	cfg := &config.Config{Timezone: "UTC", RedisURL: "redis://" + mr.Addr()}
	d, err := Open(context.Background(), cfg, Options{}, discard)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, 21, d.Settings.Schedule().QuietStart)
	assert.Equal(t, time.UTC, d.Location)

	require.NoError(t, d.Settings.SetQuietHours(context.Background(), 23, 7))
	assert.Equal(t, "23", mr.HGet(settings.DefaultRedisHash, settings.KeyQuietStart))
}

func TestOpenBadTimezone(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Timezone: "Mars/Olympus"}, Options{}, discard)
	assert.Error(t, err)
}
