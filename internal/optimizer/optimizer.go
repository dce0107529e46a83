// Package optimizer turns accumulated analytics into advisory schedule
// suggestions. It never changes live configuration.
//
// Each area compares the current setting against every candidate of the same
// shape (same window length for hours, every large-enough subset for days)
// and suggests the best one only when it beats the current metric by the
// area's threshold.
package optimizer

import (
	"fmt"
	"time"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/settings"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

const (
	// DefaultTimeframe is the trailing analysis window.
	DefaultTimeframe = 7 * 24 * time.Hour

	// MinSamples is the attempt count below which no suggestion is made.
	MinSamples = 50

	// HoursThreshold is the relative gain required for quiet-hours,
	// peak-hours and priority-threshold suggestions.
	HoursThreshold = 0.20

	// DaysThreshold is the relative gain required for active-days.
	DaysThreshold = 0.10

	// MinActiveDays bounds how few days an active-days suggestion may keep.
	MinActiveDays = 5
)

// HoursSuggestion proposes a different hour window of the same length.
type HoursSuggestion struct {
	CurrentStart   int     `json:"current_start"`
	CurrentEnd     int     `json:"current_end"`
	SuggestedStart int     `json:"suggested_start"`
	SuggestedEnd   int     `json:"suggested_end"`
	CurrentRate    float64 `json:"current_rate"`
	SuggestedRate  float64 `json:"suggested_rate"`
	Improvement    float64 `json:"improvement"`
}

// ThresholdSuggestion proposes a different quiet-hours bypass threshold.
type ThresholdSuggestion struct {
	Current       notifications.Priority `json:"current"`
	Suggested     notifications.Priority `json:"suggested"`
	CurrentRate   float64                `json:"current_rate"`
	SuggestedRate float64                `json:"suggested_rate"`
	Improvement   float64                `json:"improvement"`
}

// DaysSuggestion proposes a different active-day set.
type DaysSuggestion struct {
	Current       timewindow.Days `json:"-"`
	Suggested     timewindow.Days `json:"-"`
	CurrentDays   string          `json:"current"`
	SuggestedDays string          `json:"suggested"`
	CurrentRate   float64         `json:"current_rate"`
	SuggestedRate float64         `json:"suggested_rate"`
	Improvement   float64         `json:"improvement"`
}

// Metrics summarises the analysed window.
type Metrics struct {
	Attempts       int                         `json:"attempts"`
	Delivered      int                         `json:"delivered"`
	Batched        int                         `json:"batched"`
	QuietHours     int                         `json:"quiet_hours"`
	Throttled      int                         `json:"throttled"`
	Engagements    int                         `json:"engagements"`
	DeliveryRate   float64                     `json:"delivery_rate"`
	ThrottleRate   float64                     `json:"throttle_rate"`
	QuietRate      float64                     `json:"quiet_rate"`
	EngagementRate float64                     `json:"engagement_rate"`
	ByHour         [timewindow.HoursPerDay]int `json:"by_hour"`
	ByDay          [7]int                      `json:"by_day"`
	ByGroup        map[notifications.Group]int `json:"by_group"`
}

// Report is the advisory output. A nil suggestion means the current setting
// is already within the threshold of the best candidate.
type Report struct {
	GeneratedAt       time.Time            `json:"generated_at"`
	Since             time.Time            `json:"since"`
	TimeframeSeconds  int64                `json:"timeframe_seconds"`
	Sufficient        bool                 `json:"sufficient_data"`
	Metrics           Metrics              `json:"metrics"`
	QuietHours        *HoursSuggestion     `json:"quiet_hours,omitempty"`
	PeakHours         *HoursSuggestion     `json:"peak_hours,omitempty"`
	PriorityThreshold *ThresholdSuggestion `json:"priority_threshold,omitempty"`
	ActiveDays        *DaysSuggestion      `json:"active_days,omitempty"`
}

// Analyze builds a report from counters covering [now-timeframe, now].
func Analyze(c analytics.Counters, cfg settings.ScheduleConfig, now time.Time, timeframe time.Duration) Report {
	if timeframe <= 0 {
		timeframe = DefaultTimeframe
	}
	r := Report{
		GeneratedAt:      now,
		Since:            now.Add(-timeframe),
		TimeframeSeconds: int64(timeframe / time.Second),
		Metrics:          summarise(c),
	}
	r.Sufficient = r.Metrics.Attempts >= MinSamples
	if !r.Sufficient {
		return r
	}

	if cfg.QuietHoursEnabled {
		r.QuietHours = suggestQuietHours(c, cfg)
		r.PriorityThreshold = suggestThreshold(c, cfg)
	}
	if r.Metrics.Engagements > 0 {
		r.PeakHours = suggestPeakHours(c, cfg)
		r.ActiveDays = suggestActiveDays(c, cfg)
	}
	return r
}

// Suggestions counts the non-nil suggestions.
func (r Report) Suggestions() int {
	n := 0
	if r.QuietHours != nil {
		n++
	}
	if r.PeakHours != nil {
		n++
	}
	if r.PriorityThreshold != nil {
		n++
	}
	if r.ActiveDays != nil {
		n++
	}
	return n
}

// Lines renders the report for humans, one finding per line.
func (r Report) Lines() []string {
	m := r.Metrics
	lines := []string{
		fmt.Sprintf("window: %s to %s", r.Since.Format(time.RFC3339), r.GeneratedAt.Format(time.RFC3339)),
		fmt.Sprintf("attempts: %d (delivery %.1f%%, throttled %.1f%%, quiet hours %.1f%%, engagement %.1f%%)",
			m.Attempts, 100*m.DeliveryRate, 100*m.ThrottleRate, 100*m.QuietRate, 100*m.EngagementRate),
	}
	if !r.Sufficient {
		return append(lines, fmt.Sprintf("not enough data: need at least %d attempts", MinSamples))
	}
	if s := r.QuietHours; s != nil {
		lines = append(lines, fmt.Sprintf("quiet hours: %02d-%02d -> %02d-%02d (delivery rate %.1f%% -> %.1f%%)",
			s.CurrentStart, s.CurrentEnd, s.SuggestedStart, s.SuggestedEnd, 100*s.CurrentRate, 100*s.SuggestedRate))
	}
	if s := r.PeakHours; s != nil {
		lines = append(lines, fmt.Sprintf("peak hours: %02d-%02d -> %02d-%02d (engagement rate %.1f%% -> %.1f%%)",
			s.CurrentStart, s.CurrentEnd, s.SuggestedStart, s.SuggestedEnd, 100*s.CurrentRate, 100*s.SuggestedRate))
	}
	if s := r.PriorityThreshold; s != nil {
		lines = append(lines, fmt.Sprintf("priority threshold: %s -> %s (quiet-hours denials %.1f%% -> %.1f%%)",
			s.Current, s.Suggested, 100*s.CurrentRate, 100*s.SuggestedRate))
	}
	if s := r.ActiveDays; s != nil {
		lines = append(lines, fmt.Sprintf("active days: %s -> %s (engagement rate %.1f%% -> %.1f%%)",
			s.CurrentDays, s.SuggestedDays, 100*s.CurrentRate, 100*s.SuggestedRate))
	}
	if r.Suggestions() == 0 {
		lines = append(lines, "no changes suggested")
	}
	return lines
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

func summarise(c analytics.Counters) Metrics {
	m := Metrics{
		Attempts:   c.Get(analytics.KeyTotal),
		Delivered:  c.Outcome(analytics.OutcomeDelivered),
		Batched:    c.Outcome(analytics.OutcomeBatched),
		QuietHours: c.Outcome(analytics.OutcomeQuietHours),
		Throttled:  c.Outcome(analytics.OutcomeThrottled),
		ByGroup:    make(map[notifications.Group]int, len(notifications.Groups)),
	}
	sent := 0
	for h := range timewindow.HoursPerDay {
		m.ByHour[h] = c.Get(analytics.HourKey(h))
		m.Engagements += c.Get(analytics.EngagedHourKey(h))
		sent += c.Get(analytics.SentHourKey(h))
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		m.ByDay[d] = c.Get(analytics.DayKey(d))
	}
	for _, g := range notifications.Groups {
		m.ByGroup[g] = c.Get(analytics.GroupKey(g))
	}
	m.DeliveryRate = ratio(m.Delivered+m.Batched, m.Attempts)
	m.ThrottleRate = ratio(m.Throttled, m.Attempts)
	m.QuietRate = ratio(m.QuietHours, m.Attempts)
	m.EngagementRate = ratio(m.Engagements, sent)
	return m
}

// --------------------------------------------------------------------------
// Quiet hours: maximise the share of attempts outside the window
// --------------------------------------------------------------------------

func suggestQuietHours(c analytics.Counters, cfg settings.ScheduleConfig) *HoursSuggestion {
	total := c.Get(analytics.KeyTotal)
	length := timewindow.Length(cfg.QuietStart, cfg.QuietEnd)
	rate := func(start int) float64 {
		inside := 0
		for _, h := range timewindow.Hours(start, start+length) {
			inside += c.Get(analytics.HourKey(h))
		}
		return 1 - ratio(inside, total)
	}

	current := rate(cfg.QuietStart)
	bestStart, best := scanStarts(cfg.QuietStart, current, rate)
	gain := improvement(current, best)
	if gain <= HoursThreshold {
		return nil
	}
	return &HoursSuggestion{
		CurrentStart:   cfg.QuietStart,
		CurrentEnd:     cfg.QuietEnd,
		SuggestedStart: bestStart,
		SuggestedEnd:   timewindow.NormalizeHour(bestStart + length),
		CurrentRate:    current,
		SuggestedRate:  best,
		Improvement:    gain,
	}
}

// --------------------------------------------------------------------------
// Peak hours: maximise engagement per sent notification inside the window
// --------------------------------------------------------------------------

func suggestPeakHours(c analytics.Counters, cfg settings.ScheduleConfig) *HoursSuggestion {
	length := timewindow.Length(cfg.PeakStart, cfg.PeakEnd)
	rate := func(start int) float64 {
		engaged, sent := 0, 0
		for _, h := range timewindow.Hours(start, start+length) {
			engaged += c.Get(analytics.EngagedHourKey(h))
			sent += c.Get(analytics.SentHourKey(h))
		}
		return ratio(engaged, sent)
	}

	current := rate(cfg.PeakStart)
	bestStart, best := scanStarts(cfg.PeakStart, current, rate)
	gain := improvement(current, best)
	if gain <= HoursThreshold {
		return nil
	}
	return &HoursSuggestion{
		CurrentStart:   cfg.PeakStart,
		CurrentEnd:     cfg.PeakEnd,
		SuggestedStart: bestStart,
		SuggestedEnd:   timewindow.NormalizeHour(bestStart + length),
		CurrentRate:    current,
		SuggestedRate:  best,
		Improvement:    gain,
	}
}

// scanStarts returns the start hour with the highest rate, keeping the
// current start on ties.
func scanStarts(currentStart int, current float64, rate func(int) float64) (int, float64) {
	bestStart, best := currentStart, current
	for start := range timewindow.HoursPerDay {
		if r := rate(start); r > best {
			bestStart, best = start, r
		}
	}
	return bestStart, best
}

// --------------------------------------------------------------------------
// Priority threshold: minimise the projected quiet-hours denial rate
// --------------------------------------------------------------------------

// suggestThreshold scans every threshold from medium up to the current one
// and keeps the highest that reaches the lowest denial rate. It never goes
// below medium, so low-priority traffic always stays quiet.
func suggestThreshold(c analytics.Counters, cfg settings.ScheduleConfig) *ThresholdSuggestion {
	if cfg.PriorityThreshold <= notifications.PriorityMedium {
		return nil
	}
	total := c.Get(analytics.KeyTotal)
	quiet := timewindow.Hours(cfg.QuietStart, cfg.QuietEnd)
	denial := func(threshold notifications.Priority) float64 {
		denied := 0
		for _, h := range quiet {
			for _, p := range notifications.Priorities {
				if p < threshold {
					denied += c.Get(analytics.HourPriorityKey(h, p))
				}
			}
		}
		return ratio(denied, total)
	}

	current := denial(cfg.PriorityThreshold)
	if current == 0 {
		return nil
	}
	candidate, projected := cfg.PriorityThreshold, current
	for p := cfg.PriorityThreshold - 1; p >= notifications.PriorityMedium; p-- {
		if r := denial(p); r < projected {
			candidate, projected = p, r
		}
	}
	gain := (current - projected) / current
	if gain <= HoursThreshold {
		return nil
	}
	return &ThresholdSuggestion{
		Current:       cfg.PriorityThreshold,
		Suggested:     candidate,
		CurrentRate:   current,
		SuggestedRate: projected,
		Improvement:   gain,
	}
}

// --------------------------------------------------------------------------
// Active days: maximise engagement per sent notification on active days
// --------------------------------------------------------------------------

func suggestActiveDays(c analytics.Counters, cfg settings.ScheduleConfig) *DaysSuggestion {
	rate := func(days timewindow.Days) float64 {
		engaged, sent := 0, 0
		for _, d := range days.Weekdays() {
			engaged += c.Get(analytics.EngagedDayKey(d))
			sent += c.Get(analytics.SentDayKey(d))
		}
		return ratio(engaged, sent)
	}

	current := rate(cfg.ActiveDays)
	best, bestRate := cfg.ActiveDays, current
	for mask := timewindow.Days(1); mask <= timewindow.AllDays; mask++ {
		if mask.Len() < MinActiveDays {
			continue
		}
		r := rate(mask)
		if r > bestRate || (r == bestRate && mask.Len() > best.Len()) {
			best, bestRate = mask, r
		}
	}
	gain := improvement(current, bestRate)
	if best == cfg.ActiveDays || gain <= DaysThreshold {
		return nil
	}
	return &DaysSuggestion{
		Current:       cfg.ActiveDays,
		Suggested:     best,
		CurrentDays:   settings.FormatDays(cfg.ActiveDays),
		SuggestedDays: settings.FormatDays(best),
		CurrentRate:   current,
		SuggestedRate: bestRate,
		Improvement:   gain,
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// improvement is the relative gain of best over current. Any gain over a
// zero baseline counts as 100%.
func improvement(current, best float64) float64 {
	if best <= current {
		return 0
	}
	if current == 0 {
		return 1
	}
	return (best - current) / current
}
