// Package scheduler is the single entry point for notification scheduling.
// It owns the rate limiter and the batch accumulator behind one mutex, reads
// live configuration from the settings manager, records every attempt for the
// optimizer and hands emitted deliveries to the sink.
//
// Low priority requests go to the batch accumulator and only reach the rate
// limiter when batching is disabled. Every other priority goes straight to
// the rate limiter and is delivered or dropped.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/batch"
	"github.com/albapepper/notify-engine/internal/delivery"
	"github.com/albapepper/notify-engine/internal/metrics"
	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/optimizer"
	"github.com/albapepper/notify-engine/internal/settings"
	"github.com/albapepper/notify-engine/internal/throttle"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

// ErrNoAnalytics is returned by OptimizationReport when the engine was built
// without an analytics source.
var ErrNoAnalytics = errors.New("analytics source not configured")

// Decision is the explicit result of Schedule.
type Decision struct {
	RequestID string                 `json:"request_id"`
	Category  notifications.Category `json:"category"`
	Priority  notifications.Priority `json:"priority"`
	Group     notifications.Group    `json:"group"`
	Outcome   analytics.Outcome      `json:"outcome"`

	// Admit is set whenever the rate limiter was consulted.
	Admit *throttle.AdmitResult `json:"admit,omitempty"`

	// Deliveries are emitted by this call, in order. They have already been
	// handed to the sink.
	Deliveries []notifications.Delivery `json:"deliveries"`

	// Pending is the group's batch size after the call.
	Pending int `json:"pending"`
}

// Options wires an Engine. Only Settings is required.
type Options struct {
	Settings *settings.Manager
	Sink     delivery.Sink
	Recorder analytics.Recorder
	Source   analytics.Source
	Location *time.Location
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Engine is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	limiter *throttle.Limiter
	batches *batch.Accumulator

	// deliverMu keeps sink calls in emission order without holding mu
	// during I/O.
	deliverMu sync.Mutex

	settings *settings.Manager
	sink     delivery.Sink
	recorder analytics.Recorder
	source   analytics.Source
	loc      *time.Location
	logger   *slog.Logger
	clock    func() time.Time
}

// New creates an engine. Missing collaborators fall back to a log sink, no
// analytics, UTC, slog.Default and time.Now.
func New(opts Options) *Engine {
	if opts.Settings == nil {
		opts.Settings = settings.NewManager(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sink == nil {
		opts.Sink = delivery.NewLogSink(opts.Logger)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		limiter:  throttle.New(opts.Location),
		batches:  batch.New(),
		settings: opts.Settings,
		sink:     opts.Sink,
		recorder: opts.Recorder,
		source:   opts.Source,
		loc:      opts.Location,
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
}

// Now reads the injected clock.
func (e *Engine) Now() time.Time {
	return e.clock()
}

// Settings exposes the live configuration.
func (e *Engine) Settings() *settings.Manager {
	return e.settings
}

// Location is the time zone used for hour and weekday checks.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Schedule decides what happens to req at now and performs it.
func (e *Engine) Schedule(ctx context.Context, req notifications.Request, now time.Time) Decision {
	sched := e.settings.Schedule()
	cfg := e.settings.Batch()

	d := Decision{
		RequestID: req.ID(),
		Category:  req.Category(),
		Priority:  req.Priority(),
		Group:     req.Group(),
	}

	e.mu.Lock()
	if req.Priority() == notifications.PriorityLow {
		res := e.batches.Offer(req, cfg, now)
		if res.Purged > 0 {
			metrics.PurgedEntries.WithLabelValues(string(req.Group())).Add(float64(res.Purged))
		}
		if res.Bypass {
			e.admitLocked(req, sched, now, &d)
		} else {
			d.Outcome = analytics.OutcomeBatched
			d.Deliveries = res.Deliveries
		}
		d.Pending = res.Pending
	} else {
		e.admitLocked(req, sched, now, &d)
		d.Pending = e.batches.Pending(req.Group())
	}
	metrics.PendingEntries.WithLabelValues(string(req.Group())).Set(float64(d.Pending))
	e.deliverMu.Lock()
	e.mu.Unlock()

	e.deliverLocked(ctx, d.Deliveries)
	e.deliverMu.Unlock()

	metrics.Attempts.WithLabelValues(string(req.Category()), string(d.Outcome)).Inc()
	e.recordAttempt(ctx, req, d.Outcome, now)
	return d
}

// ShouldAdmit runs the rate limiter without recording a fire.
func (e *Engine) ShouldAdmit(req notifications.Request, now time.Time) throttle.AdmitResult {
	sched := e.settings.Schedule()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limiter.ShouldAdmit(req, sched, now)
}

// Offer adds req to its batch group directly, skipping analytics. Digests
// emitted by the size trigger are delivered. With batching disabled the
// request goes through the rate limiter instead and, if admitted, is
// delivered immediately; Deliveries then holds that single delivery.
func (e *Engine) Offer(ctx context.Context, req notifications.Request, now time.Time) batch.OfferResult {
	sched := e.settings.Schedule()
	cfg := e.settings.Batch()
	e.mu.Lock()
	res := e.batches.Offer(req, cfg, now)
	if res.Purged > 0 {
		metrics.PurgedEntries.WithLabelValues(string(req.Group())).Add(float64(res.Purged))
	}
	if res.Bypass {
		var d Decision
		e.admitLocked(req, sched, now, &d)
		res.Deliveries = d.Deliveries
	}
	metrics.PendingEntries.WithLabelValues(string(req.Group())).Set(float64(res.Pending))
	e.deliverMu.Lock()
	e.mu.Unlock()

	e.deliverLocked(ctx, res.Deliveries)
	e.deliverMu.Unlock()
	return res
}

// ForceDeliver delivers everything pending for g as one digest.
func (e *Engine) ForceDeliver(ctx context.Context, g notifications.Group, now time.Time) (notifications.Delivery, bool) {
	cfg := e.settings.Batch()
	e.mu.Lock()
	d, ok := e.batches.ForceDeliver(g, cfg, now)
	metrics.PendingEntries.WithLabelValues(string(g)).Set(0)
	e.deliverMu.Lock()
	e.mu.Unlock()

	if ok {
		e.deliverLocked(ctx, []notifications.Delivery{d})
	}
	e.deliverMu.Unlock()
	return d, ok
}

// FlushAll force-delivers every group with pending entries. Hosts call it on
// shutdown since pending batches live only in memory.
func (e *Engine) FlushAll(ctx context.Context) []notifications.Delivery {
	now := e.Now()
	var out []notifications.Delivery
	for _, g := range notifications.Groups {
		if d, ok := e.ForceDeliver(ctx, g, now); ok {
			out = append(out, d)
		}
	}
	return out
}

// Cancel drops everything pending for g. It is idempotent.
func (e *Engine) Cancel(g notifications.Group) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.batches.Cancel(g)
	metrics.PendingEntries.WithLabelValues(string(g)).Set(0)
	if n > 0 {
		e.logger.Info("Batch cancelled", "group", g, "dropped", n)
	}
	return n
}

// Preview projects what a digest for g would contain right now.
func (e *Engine) Preview(g notifications.Group) batch.Preview {
	cfg := e.settings.Batch()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches.Preview(g, cfg)
}

// Pending returns the number of entries waiting in g.
func (e *Engine) Pending(g notifications.Group) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches.Pending(g)
}

// Deadline returns the batch timer deadline of g, if one is running.
func (e *Engine) Deadline(g notifications.Group) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches.Deadline(g)
}

// NextWake is the earliest batch deadline. Hosts call Tick at or after it.
func (e *Engine) NextWake() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches.NextWake()
}

// Tick fires every batch timer whose deadline is at or before now and
// returns the deliveries it emitted.
func (e *Engine) Tick(ctx context.Context, now time.Time) []notifications.Delivery {
	cfg := e.settings.Batch()
	e.mu.Lock()
	out := e.batches.Fire(cfg, now)
	for _, d := range out {
		metrics.PendingEntries.WithLabelValues(string(d.Group)).Set(float64(e.batches.Pending(d.Group)))
	}
	e.deliverMu.Lock()
	e.mu.Unlock()

	e.deliverLocked(ctx, out)
	e.deliverMu.Unlock()
	return out
}

// ThrottleState returns a copy of the rate limiter bookkeeping.
func (e *Engine) ThrottleState(now time.Time) throttle.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limiter.Snapshot(now)
}

// RecordEngagement notes that the user opened notification id.
func (e *Engine) RecordEngagement(ctx context.Context, id string, g notifications.Group, at time.Time) error {
	if e.recorder == nil {
		return nil
	}
	return e.recorder.RecordEngagement(ctx, analytics.Engagement{
		NotificationID: id,
		Group:          g,
		Hour:           timewindow.HourOf(at, e.loc),
		Weekday:        timewindow.WeekdayOf(at, e.loc),
		At:             at,
	})
}

// OptimizationReport analyses the trailing timeframe against the live
// schedule configuration. It never changes configuration.
func (e *Engine) OptimizationReport(ctx context.Context, timeframe time.Duration) (optimizer.Report, error) {
	if e.source == nil {
		return optimizer.Report{}, ErrNoAnalytics
	}
	if timeframe <= 0 {
		timeframe = optimizer.DefaultTimeframe
	}
	now := e.Now()
	counters, err := e.source.Snapshot(ctx, now.Add(-timeframe))
	if err != nil {
		return optimizer.Report{}, err
	}
	return optimizer.Analyze(counters, e.settings.Schedule(), now, timeframe), nil
}

// --------------------------------------------------------------------------
// Internals
// --------------------------------------------------------------------------

// admitLocked runs the rate limiter and, when allowed, emits an immediate
// delivery. Denied requests are dropped.
func (e *Engine) admitLocked(req notifications.Request, sched settings.ScheduleConfig, now time.Time, d *Decision) {
	res := e.limiter.Admit(req, sched, now)
	d.Admit = &res
	switch res.Reason {
	case throttle.ReasonOK:
		d.Outcome = analytics.OutcomeDelivered
		d.Deliveries = []notifications.Delivery{
			notifications.SingleDelivery(req, notifications.TriggerImmediate, now),
		}
	case throttle.ReasonQuietHours:
		d.Outcome = analytics.OutcomeQuietHours
	default:
		d.Outcome = analytics.OutcomeThrottled
	}
}

// deliverLocked must be called with deliverMu held. Sink failures are
// logged and not retried.
func (e *Engine) deliverLocked(ctx context.Context, out []notifications.Delivery) {
	for _, d := range out {
		metrics.Deliveries.WithLabelValues(string(d.Kind), string(d.Trigger), string(d.Group)).Inc()
		if d.Kind == notifications.KindDigest {
			metrics.DigestSize.Observe(float64(d.Size()))
		}
		if err := e.sink.Deliver(ctx, d); err != nil {
			metrics.SinkFailures.WithLabelValues(string(d.Kind)).Inc()
			e.logger.Warn("Delivery failed",
				"id", d.ID, "kind", d.Kind, "group", d.Group, "error", err)
		}
	}
}

func (e *Engine) recordAttempt(ctx context.Context, req notifications.Request, outcome analytics.Outcome, now time.Time) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.RecordAttempt(ctx, analytics.Attempt{
		Category: req.Category(),
		Priority: req.Priority(),
		Group:    req.Group(),
		Outcome:  outcome,
		Hour:     timewindow.HourOf(now, e.loc),
		Weekday:  timewindow.WeekdayOf(now, e.loc),
		At:       now,
	})
	if err != nil {
		e.logger.Warn("Analytics record failed", "category", req.Category(), "error", err)
	}
}
