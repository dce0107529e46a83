package optimizer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/settings"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

var now = time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)

func add(c analytics.Counters, cat notifications.Category, o analytics.Outcome, hour int, day time.Weekday, n int) {
	c.AddAttempt(analytics.Attempt{
		Category: cat,
		Priority: cat.Priority(),
		Group:    cat.Group(),
		Outcome:  o,
		Hour:     hour,
		Weekday:  day,
	}, n)
}

func TestInsufficientData(t *testing.T) {
	c := make(analytics.Counters)
	add(c, notifications.CategoryChallenge, analytics.OutcomeQuietHours, 23, time.Monday, MinSamples-1)

	r := Analyze(c, settings.DefaultScheduleConfig(), now, 0)
	assert.False(t, r.Sufficient)
	assert.Zero(t, r.Suggestions())
	assert.Equal(t, int64(DefaultTimeframe/time.Second), r.TimeframeSeconds)
	assert.Contains(t, strings.Join(r.Lines(), "\n"), "not enough data")
}

func TestQuietHoursSuggestion(t *testing.T) {
	c := make(analytics.Counters)
	add(c, notifications.CategoryAchievement, analytics.OutcomeDelivered, 23, time.Monday, 60)
	add(c, notifications.CategoryAchievement, analytics.OutcomeDelivered, 12, time.Monday, 40)

	r := Analyze(c, settings.DefaultScheduleConfig(), now, DefaultTimeframe)
	require.True(t, r.Sufficient)
	require.NotNil(t, r.QuietHours)

	s := r.QuietHours
	assert.Equal(t, 22, s.CurrentStart)
	assert.Equal(t, 8, s.CurrentEnd)
	assert.Equal(t, 0, s.SuggestedStart)
	assert.Equal(t, 10, s.SuggestedEnd)
	assert.InDelta(t, 0.4, s.CurrentRate, 1e-9)
	assert.InDelta(t, 1.0, s.SuggestedRate, 1e-9)
	assert.InDelta(t, 1.5, s.Improvement, 1e-9)
	assert.Equal(t, timewindow.Length(22, 8), timewindow.Length(s.SuggestedStart, s.SuggestedEnd))
}

func TestQuietHoursBelowThreshold(t *testing.T) {
	c := make(analytics.Counters)
	for h := range timewindow.HoursPerDay {
		add(c, notifications.CategoryAchievement, analytics.OutcomeDelivered, h, time.Monday, 10)
	}
	r := Analyze(c, settings.DefaultScheduleConfig(), now, DefaultTimeframe)
	assert.Nil(t, r.QuietHours, "uniform traffic leaves nothing to gain")
	assert.Nil(t, r.PriorityThreshold, "no traffic below the threshold")
	assert.Nil(t, r.PeakHours, "no engagement data")
	assert.Nil(t, r.ActiveDays)
	assert.Contains(t, r.Lines(), "no changes suggested")
}

func TestPriorityThresholdSuggestion(t *testing.T) {
	c := make(analytics.Counters)
	add(c, notifications.CategoryChallenge, analytics.OutcomeQuietHours, 23, time.Monday, 30)
	add(c, notifications.CategoryChallenge, analytics.OutcomeDelivered, 12, time.Monday, 70)

	r := Analyze(c, settings.DefaultScheduleConfig(), now, DefaultTimeframe)
	require.NotNil(t, r.PriorityThreshold)
	assert.Equal(t, notifications.PriorityHigh, r.PriorityThreshold.Current)
	assert.Equal(t, notifications.PriorityMedium, r.PriorityThreshold.Suggested)
	assert.InDelta(t, 0.3, r.PriorityThreshold.CurrentRate, 1e-9)
	assert.Zero(t, r.PriorityThreshold.SuggestedRate)

	cfg := settings.DefaultScheduleConfig()
	cfg.PriorityThreshold = notifications.PriorityMedium
	r = Analyze(c, cfg, now, DefaultTimeframe)
	assert.Nil(t, r.PriorityThreshold, "never suggests letting low priority through")

	cfg.QuietHoursEnabled = false
	r = Analyze(c, cfg, now, DefaultTimeframe)
	assert.Nil(t, r.QuietHours)
	assert.Nil(t, r.PriorityThreshold)
}

func TestPriorityThresholdScansEveryLevel(t *testing.T) {
	cfg := settings.DefaultScheduleConfig()
	cfg.PriorityThreshold = notifications.PriorityCritical

	c := make(analytics.Counters)
	add(c, notifications.CategoryChallenge, analytics.OutcomeQuietHours, 23, time.Monday, 30)
	add(c, notifications.CategoryAchievement, analytics.OutcomeQuietHours, 23, time.Monday, 10)
	add(c, notifications.CategoryChallenge, analytics.OutcomeDelivered, 12, time.Monday, 60)

	r := Analyze(c, cfg, now, DefaultTimeframe)
	require.NotNil(t, r.PriorityThreshold)
	assert.Equal(t, notifications.PriorityMedium, r.PriorityThreshold.Suggested, "two levels down clears every denial")
	assert.InDelta(t, 0.4, r.PriorityThreshold.CurrentRate, 1e-9)
	assert.Zero(t, r.PriorityThreshold.SuggestedRate)

	c = make(analytics.Counters)
	add(c, notifications.CategoryAchievement, analytics.OutcomeQuietHours, 23, time.Monday, 30)
	add(c, notifications.CategoryAchievement, analytics.OutcomeDelivered, 12, time.Monday, 70)

	r = Analyze(c, cfg, now, DefaultTimeframe)
	require.NotNil(t, r.PriorityThreshold)
	assert.Equal(t, notifications.PriorityHigh, r.PriorityThreshold.Suggested, "smallest change reaching the best rate")
}

func TestPeakHoursSuggestion(t *testing.T) {
	c := make(analytics.Counters)
	for h := range timewindow.HoursPerDay {
		add(c, notifications.CategoryAchievement, analytics.OutcomeDelivered, h, time.Monday, 10)
		engaged := 1
		switch h {
		case 8:
			engaged = 6
		case 9:
			engaged = 5
		case 10:
			engaged = 4
		}
		c.AddEngagement(h, time.Monday, engaged)
	}

	r := Analyze(c, settings.DefaultScheduleConfig(), now, DefaultTimeframe)
	require.NotNil(t, r.PeakHours)
	s := r.PeakHours
	assert.Equal(t, 18, s.CurrentStart)
	assert.Equal(t, 8, s.SuggestedStart)
	assert.Equal(t, 11, s.SuggestedEnd)
	assert.InDelta(t, 0.1, s.CurrentRate, 1e-9)
	assert.InDelta(t, 0.5, s.SuggestedRate, 1e-9)
}

func TestActiveDaysSuggestion(t *testing.T) {
	c := make(analytics.Counters)
	for d := time.Sunday; d <= time.Saturday; d++ {
		add(c, notifications.CategoryAchievement, analytics.OutcomeDelivered, 12, d, 10)
		if !timewindow.IsWeekend(d) {
			c.AddEngagement(12, d, 5)
		}
	}

	r := Analyze(c, settings.DefaultScheduleConfig(), now, DefaultTimeframe)
	require.NotNil(t, r.ActiveDays)
	assert.Equal(t, "sun,mon,tue,wed,thu,fri,sat", r.ActiveDays.CurrentDays)
	assert.Equal(t, "mon,tue,wed,thu,fri", r.ActiveDays.SuggestedDays)
	assert.Equal(t, MinActiveDays, r.ActiveDays.Suggested.Len())
	assert.InDelta(t, 0.5, r.ActiveDays.SuggestedRate, 1e-9)
}

func TestMetricsAndJSON(t *testing.T) {
	c := make(analytics.Counters)
	add(c, notifications.CategoryDailyReward, analytics.OutcomeBatched, 9, time.Tuesday, 40)
	add(c, notifications.CategoryChallenge, analytics.OutcomeThrottled, 9, time.Tuesday, 10)
	c.AddEngagement(9, time.Tuesday, 20)

	r := Analyze(c, settings.DefaultScheduleConfig(), now, 24*time.Hour)
	m := r.Metrics
	assert.Equal(t, 50, m.Attempts)
	assert.Equal(t, 40, m.Batched)
	assert.Equal(t, 10, m.Throttled)
	assert.InDelta(t, 0.8, m.DeliveryRate, 1e-9)
	assert.InDelta(t, 0.2, m.ThrottleRate, 1e-9)
	assert.InDelta(t, 0.5, m.EngagementRate, 1e-9)
	assert.Equal(t, 50, m.ByHour[9])
	assert.Equal(t, 50, m.ByDay[time.Tuesday])
	assert.Equal(t, 40, m.ByGroup[notifications.GroupRewards])
	assert.Equal(t, now.Add(-24*time.Hour), r.Since)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sufficient_data":true`)
	assert.Contains(t, string(b), `"by_group":{`)
}
