// Package maintenance runs the engine's background work: a ticker that fires
// due batch timers, and cron jobs for analytics retention and the daily
// optimization report.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/optimizer"
)

// Engine is the part of scheduler.Engine maintenance drives.
type Engine interface {
	Now() time.Time
	NextWake() (time.Time, bool)
	Tick(ctx context.Context, now time.Time) []notifications.Delivery
	OptimizationReport(ctx context.Context, timeframe time.Duration) (optimizer.Report, error)
}

// Config controls maintenance tasks. An empty cron spec or zero duration
// disables a task.
type Config struct {
	TickInterval    time.Duration // Batch timer resolution
	Retention       time.Duration // Analytics older than this are pruned
	CleanupSchedule string        // Cron spec for pruning
	ReportSchedule  string        // Cron spec for the optimization report log
	ReportTimeframe time.Duration
	Location        *time.Location // Cron time zone
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:    time.Second,
		Retention:       30 * 24 * time.Hour,
		CleanupSchedule: "@daily",
		ReportSchedule:  "0 6 * * *",
		ReportTimeframe: optimizer.DefaultTimeframe,
		Location:        time.UTC,
	}
}

// ConfigFrom maps service configuration onto maintenance settings.
func ConfigFrom(cfg *config.Config, loc *time.Location) Config {
	return Config{
		TickInterval:    cfg.BatchTickInterval,
		Retention:       cfg.AnalyticsRetention,
		CleanupSchedule: cfg.CleanupSchedule,
		ReportSchedule:  cfg.ReportSchedule,
		ReportTimeframe: cfg.ReportTimeframe,
		Location:        loc,
	}
}

// Start launches the batch ticker and cron jobs. It returns an error for an
// invalid cron spec, otherwise it blocks until ctx is cancelled. pruner may
// be nil. Intended to be called with `go`.
func Start(ctx context.Context, engine Engine, pruner analytics.Pruner, cfg Config, logger *slog.Logger) error {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if pruner != nil && cfg.CleanupSchedule != "" && cfg.Retention > 0 {
		_, err := c.AddFunc(cfg.CleanupSchedule, func() {
			Prune(ctx, pruner, engine.Now().Add(-cfg.Retention), logger)
		})
		if err != nil {
			return fmt.Errorf("cleanup schedule %q: %w", cfg.CleanupSchedule, err)
		}
	}
	if cfg.ReportSchedule != "" {
		_, err := c.AddFunc(cfg.ReportSchedule, func() {
			LogReport(ctx, engine, cfg.ReportTimeframe, logger)
		})
		if err != nil {
			return fmt.Errorf("report schedule %q: %w", cfg.ReportSchedule, err)
		}
	}

	logger.Info("Maintenance started",
		"tick", cfg.TickInterval,
		"cleanup", cfg.CleanupSchedule,
		"report", cfg.ReportSchedule,
		"retention", cfg.Retention)

	c.Start()
	defer func() {
		<-c.Stop().Done()
		logger.Info("Maintenance stopped")
	}()

	if cfg.TickInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(cfg.TickInterval)
	defer t.Stop()
	runLoop(ctx, t.C, func() { RunTick(ctx, engine, logger) })
	return nil
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// RunTick fires batch timers when the earliest deadline has passed. It
// returns the number of deliveries emitted.
func RunTick(ctx context.Context, engine Engine, logger *slog.Logger) int {
	wake, ok := engine.NextWake()
	if !ok {
		return 0
	}
	now := engine.Now()
	if now.Before(wake) {
		return 0
	}
	out := engine.Tick(ctx, now)
	for _, d := range out {
		logger.Debug("Batch timer fired", "group", d.Group, "kind", d.Kind, "items", d.Size())
	}
	return len(out)
}

// Prune drops analytics recorded before cutoff.
func Prune(ctx context.Context, pruner analytics.Pruner, cutoff time.Time, logger *slog.Logger) int64 {
	n, err := pruner.Prune(ctx, cutoff)
	if err != nil {
		logger.Warn("Cleanup: failed to prune analytics", "cutoff", cutoff, "error", err)
		return 0
	}
	if n > 0 {
		logger.Info("Cleanup: pruned analytics", "count", n, "cutoff", cutoff)
	}
	return n
}

// LogReport builds an optimization report and logs one line per suggestion.
// It never changes configuration.
func LogReport(ctx context.Context, engine Engine, timeframe time.Duration, logger *slog.Logger) {
	report, err := engine.OptimizationReport(ctx, timeframe)
	if err != nil {
		logger.Warn("Optimization report failed", "error", err)
		return
	}
	logger.Info("Optimization report",
		"timeframe", timeframe,
		"sufficient_data", report.Sufficient,
		"suggestions", report.Suggestions())
	for _, line := range report.Lines() {
		logger.Info("Optimization report", "line", line)
	}
}
