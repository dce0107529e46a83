// Package settings holds the scheduling and batching configuration and
// persists each field through a key-value Store. Every setter clamps its
// input into a valid range instead of rejecting it.
package settings

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

// --------------------------------------------------------------------------
// Schedule config
// --------------------------------------------------------------------------

// ScheduleConfig controls when notifications may fire.
type ScheduleConfig struct {
	QuietHoursEnabled bool
	QuietStart        int
	QuietEnd          int
	WeekendQuietHours bool
	PriorityThreshold notifications.Priority
	ActiveDays        timewindow.Days
	PeakStart         int
	PeakEnd           int
}

// DefaultScheduleConfig returns production defaults.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		QuietHoursEnabled: true,
		QuietStart:        22,
		QuietEnd:          8,
		WeekendQuietHours: true,
		PriorityThreshold: notifications.PriorityHigh,
		ActiveDays:        timewindow.AllDays,
		PeakStart:         18,
		PeakEnd:           21,
	}
}

// Normalize folds every field into its valid range.
func (c ScheduleConfig) Normalize() ScheduleConfig {
	c.QuietStart = timewindow.NormalizeHour(c.QuietStart)
	c.QuietEnd = timewindow.NormalizeHour(c.QuietEnd)
	c.PeakStart = timewindow.NormalizeHour(c.PeakStart)
	c.PeakEnd = timewindow.NormalizeHour(c.PeakEnd)
	c.PriorityThreshold = clampPriority(c.PriorityThreshold)
	c.ActiveDays &= timewindow.AllDays
	return c
}

// InQuietHours reports whether t falls in quiet time: the configured quiet
// window, or any hour of a day outside ActiveDays.
func (c ScheduleConfig) InQuietHours(t time.Time, loc *time.Location) bool {
	if !c.QuietHoursEnabled {
		return false
	}
	day := timewindow.WeekdayOf(t, loc)
	if timewindow.IsWeekend(day) && !c.WeekendQuietHours {
		return false
	}
	if !c.ActiveDays.Has(day) {
		return true
	}
	return timewindow.InWindow(timewindow.HourOf(t, loc), c.QuietStart, c.QuietEnd)
}

// InPeakHours reports whether t falls in the peak window.
func (c ScheduleConfig) InPeakHours(t time.Time, loc *time.Location) bool {
	return timewindow.InWindow(timewindow.HourOf(t, loc), c.PeakStart, c.PeakEnd)
}

func clampPriority(p notifications.Priority) notifications.Priority {
	if p < notifications.PriorityLow {
		return notifications.PriorityLow
	}
	if p > notifications.PriorityCritical {
		return notifications.PriorityCritical
	}
	return p
}

// --------------------------------------------------------------------------
// Batch config
// --------------------------------------------------------------------------

// Batch size and timing floors.
const (
	MinBatchSizeFloor = 2
	MinBatchDelay     = time.Second
)

// BatchConfig controls low-priority accumulation.
type BatchConfig struct {
	Enabled      bool
	MinBatchSize int
	MaxBatchSize int
	BatchDelay   time.Duration
	MaxBatchAge  time.Duration
}

// DefaultBatchConfig returns production defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Enabled:      true,
		MinBatchSize: 3,
		MaxBatchSize: 10,
		BatchDelay:   5 * time.Minute,
		MaxBatchAge:  time.Hour,
	}
}

// Normalize enforces 2 <= min <= max, delay >= 1s and age >= delay.
func (c BatchConfig) Normalize() BatchConfig {
	c.MaxBatchSize = max(MinBatchSizeFloor, c.MaxBatchSize)
	c.MinBatchSize = ClampMinBatchSize(c.MinBatchSize, c.MaxBatchSize)
	c.BatchDelay = max(MinBatchDelay, c.BatchDelay)
	c.MaxBatchAge = max(c.BatchDelay, c.MaxBatchAge)
	return c
}

// ClampMinBatchSize returns max(2, min(requested, maxSize)).
func ClampMinBatchSize(requested, maxSize int) int {
	return max(MinBatchSizeFloor, min(requested, maxSize))
}

// maxSeconds is the largest whole-second count a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// Seconds converts n seconds to a Duration, saturating at the largest
// representable value. Negative counts become zero.
func Seconds(n int64) time.Duration {
	return time.Duration(min(max(n, 0), maxSeconds)) * time.Second
}

// --------------------------------------------------------------------------
// Weekday helpers
// --------------------------------------------------------------------------

// FormatDays renders a day set as "mon,tue,...".
func FormatDays(d timewindow.Days) string {
	names := make([]string, 0, 7)
	for _, wd := range d.Weekdays() {
		names = append(names, strings.ToLower(wd.String()[:3]))
	}
	return strings.Join(names, ",")
}

// ParseDays parses a comma-separated list of weekday names or three-letter
// abbreviations. An empty string yields the empty set.
func ParseDays(s string) (timewindow.Days, error) {
	var out timewindow.Days
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := parseWeekday(part)
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		out = out.With(d)
	}
	return out, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if s == full || s == full[:3] {
			return d, true
		}
	}
	return 0, false
}
