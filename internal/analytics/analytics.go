// Package analytics counts scheduling attempts and engagements for the
// schedule optimizer. Counters are keyed by composite strings so every
// backend exposes the same Snapshot shape.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/notify-engine/internal/notifications"
)

// Outcome is what happened to a scheduling attempt.
type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeBatched    Outcome = "batched"
	OutcomeQuietHours Outcome = "quiet_hours"
	OutcomeThrottled  Outcome = "throttled"
)

// Outcomes lists every outcome.
var Outcomes = []Outcome{OutcomeDelivered, OutcomeBatched, OutcomeQuietHours, OutcomeThrottled}

// Sent reports whether the attempt reached the user, directly or in a digest.
func (o Outcome) Sent() bool {
	return o == OutcomeDelivered || o == OutcomeBatched
}

// Attempt is one call to the scheduling facade.
type Attempt struct {
	Category notifications.Category
	Priority notifications.Priority
	Group    notifications.Group
	Outcome  Outcome
	Hour     int
	Weekday  time.Weekday
	At       time.Time
}

// Engagement is a user opening a delivered notification.
type Engagement struct {
	NotificationID string
	Group          notifications.Group
	Hour           int
	Weekday        time.Weekday
	At             time.Time
}

// Recorder accepts analytics events.
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
	RecordEngagement(ctx context.Context, e Engagement) error
}

// Source aggregates recorded events since a point in time.
type Source interface {
	Snapshot(ctx context.Context, since time.Time) (Counters, error)
}

// Pruner drops events older than a cutoff and reports how many went.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Store is a backend implementing every analytics role.
type Store interface {
	Recorder
	Source
	Pruner
}

// --------------------------------------------------------------------------
// Counters
// --------------------------------------------------------------------------

// Counters maps composite keys to counts. A missing key reads as zero.
type Counters map[string]int

// KeyTotal counts every attempt.
const KeyTotal = "total"

func PriorityOutcomeKey(p notifications.Priority, o Outcome) string {
	return fmt.Sprintf("priority:%s:%s", p, o)
}

func HourKey(h int) string { return fmt.Sprintf("hour:%d", h) }

func DayKey(d time.Weekday) string { return fmt.Sprintf("day:%d", int(d)) }

func GroupKey(g notifications.Group) string { return "group:" + string(g) }

func HourPriorityKey(h int, p notifications.Priority) string {
	return fmt.Sprintf("hour:%d:priority:%s", h, p)
}

func SentHourKey(h int) string { return fmt.Sprintf("delivered:hour:%d", h) }

func SentDayKey(d time.Weekday) string { return fmt.Sprintf("delivered:day:%d", int(d)) }

func EngagedHourKey(h int) string { return fmt.Sprintf("engaged:hour:%d", h) }

func EngagedDayKey(d time.Weekday) string { return fmt.Sprintf("engaged:day:%d", int(d)) }

// Get returns the count for key.
func (c Counters) Get(key string) int {
	return c[key]
}

// Merge adds every count of other into c.
func (c Counters) Merge(other Counters) {
	for k, v := range other {
		c[k] += v
	}
}

// AddAttempt counts n attempts shaped like a.
func (c Counters) AddAttempt(a Attempt, n int) {
	c[KeyTotal] += n
	c[PriorityOutcomeKey(a.Priority, a.Outcome)] += n
	c[HourKey(a.Hour)] += n
	c[DayKey(a.Weekday)] += n
	c[GroupKey(a.Group)] += n
	c[HourPriorityKey(a.Hour, a.Priority)] += n
	if a.Outcome.Sent() {
		c[SentHourKey(a.Hour)] += n
		c[SentDayKey(a.Weekday)] += n
	}
}

// AddEngagement counts n engagements at hour h on day d.
func (c Counters) AddEngagement(h int, d time.Weekday, n int) {
	c[EngagedHourKey(h)] += n
	c[EngagedDayKey(d)] += n
}

// Outcome sums attempts with outcome o across priorities.
func (c Counters) Outcome(o Outcome) int {
	n := 0
	for _, p := range notifications.Priorities {
		n += c[PriorityOutcomeKey(p, o)]
	}
	return n
}
