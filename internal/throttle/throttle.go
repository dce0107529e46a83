// Package throttle gates immediate notification fires. A request is denied
// during quiet time unless its priority meets the configured threshold, when
// its priority has used up its rolling-hour quota, or when the same category
// fired more recently than its priority's minimum interval.
//
// ShouldAdmit never mutates state; RecordFire commits an admitted fire. The
// Limiter is not safe for concurrent use; the scheduler serialises access.
package throttle

import (
	"time"

	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/settings"
)

// HourWindow is the length of the rolling quota window.
const HourWindow = time.Hour

// Reason explains an admission decision.
type Reason string

const (
	ReasonOK         Reason = "ok"
	ReasonQuietHours Reason = "quiet_hours"
	ReasonThrottled  Reason = "throttled"
)

// AdmitResult is the outcome of ShouldAdmit. A denial is a normal value.
type AdmitResult struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

// State is the mutable throttle bookkeeping. It is never persisted.
type State struct {
	LastFire  map[notifications.Category]time.Time
	HourCount map[notifications.Priority]int
	HourStart time.Time
}

// Limiter owns a State and evaluates requests against a ScheduleConfig.
type Limiter struct {
	state State
	loc   *time.Location
}

// New creates a limiter evaluating hours and weekdays in loc.
func New(loc *time.Location) *Limiter {
	if loc == nil {
		loc = time.UTC
	}
	return &Limiter{
		state: State{
			LastFire:  make(map[notifications.Category]time.Time),
			HourCount: make(map[notifications.Priority]int),
		},
		loc: loc,
	}
}

// ShouldAdmit decides whether req may fire at now.
func (l *Limiter) ShouldAdmit(req notifications.Request, cfg settings.ScheduleConfig, now time.Time) AdmitResult {
	p := req.Priority()

	if p < cfg.PriorityThreshold && cfg.InQuietHours(now, l.loc) {
		return AdmitResult{Allowed: false, Reason: ReasonQuietHours}
	}

	if l.countAt(p, now) >= p.AllowedPerHour() {
		return AdmitResult{Allowed: false, Reason: ReasonThrottled}
	}

	if last, ok := l.state.LastFire[req.Category()]; ok {
		if now.Sub(last) < p.ThrottleInterval() {
			return AdmitResult{Allowed: false, Reason: ReasonThrottled}
		}
	}

	return AdmitResult{Allowed: true, Reason: ReasonOK}
}

// RecordFire commits a fire of category at now.
func (l *Limiter) RecordFire(category notifications.Category, priority notifications.Priority, now time.Time) {
	l.roll(now)
	l.state.LastFire[category] = now
	l.state.HourCount[priority]++
}

// Admit runs ShouldAdmit and, when allowed, RecordFire.
func (l *Limiter) Admit(req notifications.Request, cfg settings.ScheduleConfig, now time.Time) AdmitResult {
	res := l.ShouldAdmit(req, cfg, now)
	if res.Allowed {
		l.RecordFire(req.Category(), req.Priority(), now)
	}
	return res
}

// Snapshot returns a copy of the current state with counters rolled to now.
func (l *Limiter) Snapshot(now time.Time) State {
	out := State{
		LastFire:  make(map[notifications.Category]time.Time, len(l.state.LastFire)),
		HourCount: make(map[notifications.Priority]int, len(l.state.HourCount)),
		HourStart: l.state.HourStart,
	}
	for c, t := range l.state.LastFire {
		out.LastFire[c] = t
	}
	if l.expired(now) {
		out.HourStart = now
		return out
	}
	for p, n := range l.state.HourCount {
		out.HourCount[p] = n
	}
	return out
}

// Reset clears all bookkeeping.
func (l *Limiter) Reset() {
	l.state = State{
		LastFire:  make(map[notifications.Category]time.Time),
		HourCount: make(map[notifications.Priority]int),
	}
}

// countAt is the quota usage of p as it would be after rolling to now.
func (l *Limiter) countAt(p notifications.Priority, now time.Time) int {
	if l.expired(now) {
		return 0
	}
	return l.state.HourCount[p]
}

func (l *Limiter) expired(now time.Time) bool {
	return l.state.HourStart.IsZero() || now.Sub(l.state.HourStart) > HourWindow
}

func (l *Limiter) roll(now time.Time) {
	if !l.expired(now) {
		return
	}
	clear(l.state.HourCount)
	l.state.HourStart = now
}
