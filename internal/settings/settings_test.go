package settings

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

func TestInQuietHours(t *testing.T) {
	monday23 := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	monday12 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	saturday23 := time.Date(2026, 3, 7, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		edit func(*ScheduleConfig)
		at   time.Time
		want bool
	}{
		{"inside overnight window", nil, monday23, true},
		{"outside window", nil, monday12, false},
		{"disabled", func(c *ScheduleConfig) { c.QuietHoursEnabled = false }, monday23, false},
		{"weekend with weekend quiet hours", nil, saturday23, true},
		{"weekend without weekend quiet hours", func(c *ScheduleConfig) { c.WeekendQuietHours = false }, saturday23, false},
		{"inactive day is quiet all day", func(c *ScheduleConfig) {
			c.ActiveDays = timewindow.NewDays(time.Tuesday)
		}, monday12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScheduleConfig()
			if tt.edit != nil {
				tt.edit(&cfg)
			}
			assert.Equal(t, tt.want, cfg.InQuietHours(tt.at, time.UTC))
		})
	}
}

func TestInQuietHoursUsesLocation(t *testing.T) {
	cfg := DefaultScheduleConfig()
	afternoonUTC := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)
	assert.False(t, cfg.InQuietHours(afternoonUTC, time.UTC))
	assert.True(t, cfg.InQuietHours(afternoonUTC, tokyo), "23:00 in Tokyo")
}

func TestScheduleNormalize(t *testing.T) {
	cfg := ScheduleConfig{QuietStart: 25, QuietEnd: -1, PriorityThreshold: 9, ActiveDays: 0xFF, PeakStart: 48}
	got := cfg.Normalize()
	assert.Equal(t, 1, got.QuietStart)
	assert.Equal(t, 23, got.QuietEnd)
	assert.Equal(t, 0, got.PeakStart)
	assert.Equal(t, notifications.PriorityCritical, got.PriorityThreshold)
	assert.Equal(t, timewindow.AllDays, got.ActiveDays)
}

func TestBatchNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   BatchConfig
		want BatchConfig
	}{
		{
			name: "min above max clamps to max",
			in:   BatchConfig{MinBatchSize: 10, MaxBatchSize: 5, BatchDelay: time.Minute, MaxBatchAge: time.Hour},
			want: BatchConfig{MinBatchSize: 5, MaxBatchSize: 5, BatchDelay: time.Minute, MaxBatchAge: time.Hour},
		},
		{
			name: "floors",
			in:   BatchConfig{MinBatchSize: 0, MaxBatchSize: 1, BatchDelay: 0, MaxBatchAge: 0},
			want: BatchConfig{MinBatchSize: 2, MaxBatchSize: 2, BatchDelay: time.Second, MaxBatchAge: time.Second},
		},
		{
			name: "age below delay is raised",
			in:   BatchConfig{MinBatchSize: 3, MaxBatchSize: 10, BatchDelay: 10 * time.Minute, MaxBatchAge: time.Minute},
			want: BatchConfig{MinBatchSize: 3, MaxBatchSize: 10, BatchDelay: 10 * time.Minute, MaxBatchAge: 10 * time.Minute},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want time.Duration
	}{
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"huge negative", -10_000_000_000, 0},
		{"minute", 60, time.Minute},
		{"largest exact", maxSeconds, time.Duration(maxSeconds) * time.Second},
		{"beyond range saturates", 10_000_000_000, time.Duration(maxSeconds) * time.Second},
		{"max int64 saturates", math.MaxInt64, time.Duration(maxSeconds) * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Seconds(tt.in))
		})
	}

	cfg := DefaultBatchConfig()
	cfg.BatchDelay = Seconds(10_000_000_000)
	cfg.MaxBatchAge = Seconds(10_000_000_000)
	got := cfg.Normalize()
	assert.Equal(t, Seconds(maxSeconds), got.BatchDelay)
	assert.Equal(t, Seconds(maxSeconds), got.MaxBatchAge)
}

func TestClampMinBatchSize(t *testing.T) {
	assert.Equal(t, 2, ClampMinBatchSize(1, 10))
	assert.Equal(t, 5, ClampMinBatchSize(10, 5))
	assert.Equal(t, 4, ClampMinBatchSize(4, 5))
}

func TestDaysRoundTrip(t *testing.T) {
	d := timewindow.NewDays(time.Monday, time.Wednesday, time.Sunday)
	assert.Equal(t, "sun,mon,wed", FormatDays(d))

	got, err := ParseDays(" Monday, wed ,SUN")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	empty, err := ParseDays("")
	require.NoError(t, err)
	assert.Zero(t, empty)

	_, err = ParseDays("mon,funday")
	assert.Error(t, err)
}
