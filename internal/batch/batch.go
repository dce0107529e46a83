// Package batch accumulates low-priority notifications per group and merges
// them into digests.
//
// Per group: Idle → Accumulating → (size | timer | force) → Idle.
//
// Timers are explicit deadlines rather than callbacks: NextWake reports the
// earliest pending deadline and Fire delivers every group whose deadline has
// passed. The Accumulator is not safe for concurrent use; the scheduler
// serialises access.
package batch

import (
	"sort"
	"time"

	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/settings"
)

// Entry is a pending request and the time it arrived.
type Entry struct {
	Request   notifications.Request
	ArrivedAt time.Time
}

// OfferResult reports what Offer did.
type OfferResult struct {
	// Bypass is set when batching is disabled; the caller must attempt an
	// immediate delivery instead.
	Bypass bool
	// Deliveries are digests emitted by the size trigger, oldest first.
	Deliveries []notifications.Delivery
	// Purged counts entries dropped for exceeding the max batch age.
	Purged int
	// Pending is the group's pending count after the offer.
	Pending int
}

// Preview is a read-only projection of a group's pending entries.
type Preview struct {
	Group   notifications.Group     `json:"group"`
	Title   string                  `json:"title"`
	Items   []notifications.Payload `json:"items"`
	Pending int                     `json:"pending"`
	HasMore bool                    `json:"has_more"`
}

// Accumulator holds pending entries and deadlines for every group.
type Accumulator struct {
	pending   map[notifications.Group][]Entry
	deadlines map[notifications.Group]time.Time
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{
		pending:   make(map[notifications.Group][]Entry),
		deadlines: make(map[notifications.Group]time.Time),
	}
}

// Offer adds req to its group at now. Entries older than MaxBatchAge are
// purged first. When the group reaches MinBatchSize the oldest MaxBatchSize
// entries are merged and returned; otherwise a timer is started if none is
// running.
func (a *Accumulator) Offer(req notifications.Request, cfg settings.BatchConfig, now time.Time) OfferResult {
	g := req.Group()
	res := OfferResult{Purged: a.purge(g, cfg.MaxBatchAge, now)}

	if !cfg.Enabled {
		res.Bypass = true
		res.Pending = len(a.pending[g])
		return res
	}

	a.pending[g] = append(a.pending[g], Entry{Request: req, ArrivedAt: now})

	for len(a.pending[g]) >= cfg.MinBatchSize {
		n := min(len(a.pending[g]), cfg.MaxBatchSize)
		res.Deliveries = append(res.Deliveries, a.take(g, n, cfg.MaxBatchSize, notifications.TriggerSize, now))
	}

	switch {
	case len(a.pending[g]) == 0:
		a.stopTimer(g)
	case !a.timerRunning(g):
		a.startTimer(g, now.Add(cfg.BatchDelay))
	}

	res.Pending = len(a.pending[g])
	return res
}

// Fire delivers every group whose timer deadline is at or before now. A
// group with one remaining entry yields a single delivery; more yield a
// digest. Timers of fired groups are cleared.
func (a *Accumulator) Fire(cfg settings.BatchConfig, now time.Time) []notifications.Delivery {
	var out []notifications.Delivery
	for _, g := range a.dueGroups(now) {
		a.stopTimer(g)
		a.purge(g, cfg.MaxBatchAge, now)
		if d, ok := a.drain(g, cfg.MaxBatchSize, notifications.TriggerTimer, now); ok {
			out = append(out, d)
		}
	}
	return out
}

// ForceDeliver merges everything pending for g into one digest, bypassing
// size and time checks. It returns false when g is empty.
func (a *Accumulator) ForceDeliver(g notifications.Group, cfg settings.BatchConfig, now time.Time) (notifications.Delivery, bool) {
	a.stopTimer(g)
	return a.drain(g, cfg.MaxBatchSize, notifications.TriggerForce, now)
}

// Cancel drops everything pending for g and stops its timer. It returns the
// number of dropped entries; cancelling an empty group is a no-op.
func (a *Accumulator) Cancel(g notifications.Group) int {
	a.stopTimer(g)
	n := len(a.pending[g])
	delete(a.pending, g)
	return n
}

// Preview projects the pending entries of g without mutating anything.
func (a *Accumulator) Preview(g notifications.Group, cfg settings.BatchConfig) Preview {
	entries := a.pending[g]
	shown := min(len(entries), cfg.MaxBatchSize)
	items := make([]notifications.Payload, 0, shown)
	for _, e := range entries[:shown] {
		items = append(items, e.Request.Payload())
	}
	return Preview{
		Group:   g,
		Title:   notifications.DigestTitle(g),
		Items:   items,
		Pending: len(entries),
		HasMore: len(entries) > shown,
	}
}

// Pending returns how many entries wait in g.
func (a *Accumulator) Pending(g notifications.Group) int {
	return len(a.pending[g])
}

// Deadline returns the timer deadline of g, if one is running.
func (a *Accumulator) Deadline(g notifications.Group) (time.Time, bool) {
	t, ok := a.deadlines[g]
	return t, ok
}

// NextWake returns the earliest running deadline across all groups.
func (a *Accumulator) NextWake() (time.Time, bool) {
	var next time.Time
	for _, t := range a.deadlines {
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next, !next.IsZero()
}

// --------------------------------------------------------------------------
// Internals
// --------------------------------------------------------------------------

// purge drops entries of g that arrived more than maxAge before now. Entries
// are in arrival order so the expired ones form a prefix.
func (a *Accumulator) purge(g notifications.Group, maxAge time.Duration, now time.Time) int {
	entries := a.pending[g]
	cut := 0
	for cut < len(entries) && now.Sub(entries[cut].ArrivedAt) > maxAge {
		cut++
	}
	if cut == 0 {
		return 0
	}
	a.pending[g] = append([]Entry(nil), entries[cut:]...)
	if len(a.pending[g]) == 0 {
		delete(a.pending, g)
		a.stopTimer(g)
	}
	return cut
}

// take removes the n oldest entries of g and merges them.
func (a *Accumulator) take(g notifications.Group, n, maxItems int, trigger notifications.Trigger, now time.Time) notifications.Delivery {
	entries := a.pending[g]
	batch := entries[:n]
	a.pending[g] = append([]Entry(nil), entries[n:]...)
	if len(a.pending[g]) == 0 {
		delete(a.pending, g)
	}
	return merge(g, batch, maxItems, trigger, now)
}

// drain removes every entry of g.
func (a *Accumulator) drain(g notifications.Group, maxItems int, trigger notifications.Trigger, now time.Time) (notifications.Delivery, bool) {
	entries := a.pending[g]
	if len(entries) == 0 {
		return notifications.Delivery{}, false
	}
	delete(a.pending, g)
	return merge(g, entries, maxItems, trigger, now), true
}

func merge(g notifications.Group, entries []Entry, maxItems int, trigger notifications.Trigger, now time.Time) notifications.Delivery {
	if len(entries) == 1 && trigger != notifications.TriggerForce {
		return notifications.SingleDelivery(entries[0].Request, trigger, now)
	}
	reqs := make([]notifications.Request, len(entries))
	for i, e := range entries {
		reqs[i] = e.Request
	}
	return notifications.DigestDelivery(g, reqs, maxItems, trigger, now)
}

func (a *Accumulator) timerRunning(g notifications.Group) bool {
	_, ok := a.deadlines[g]
	return ok
}

// startTimer sets the deadline of g, replacing any running timer.
func (a *Accumulator) startTimer(g notifications.Group, at time.Time) {
	a.deadlines[g] = at
}

func (a *Accumulator) stopTimer(g notifications.Group) {
	delete(a.deadlines, g)
}

// dueGroups lists groups whose deadline passed, in a stable order.
func (a *Accumulator) dueGroups(now time.Time) []notifications.Group {
	var due []notifications.Group
	for g, t := range a.deadlines {
		if !t.After(now) {
			due = append(due, g)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	return due
}
