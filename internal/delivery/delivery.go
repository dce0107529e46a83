// Package delivery hands scheduled notifications to the outside world. The
// engine only knows the Sink interface; transports are chosen in main.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/albapepper/notify-engine/internal/notifications"
)

// Sink accepts one delivery. Errors are reported back to the engine, which
// logs them and does not retry.
type Sink interface {
	Deliver(ctx context.Context, d notifications.Delivery) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, d notifications.Delivery) error

func (f SinkFunc) Deliver(ctx context.Context, d notifications.Delivery) error {
	return f(ctx, d)
}

// --------------------------------------------------------------------------
// Log sink
// --------------------------------------------------------------------------

// LogSink writes every delivery to a structured log. It is the default sink
// when no transport is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging to logger, or to slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, d notifications.Delivery) error {
	s.logger.Info("Notification delivered",
		"id", d.ID,
		"kind", d.Kind,
		"trigger", d.Trigger,
		"group", d.Group,
		"priority", d.Priority,
		"items", d.Size(),
		"title", d.Title)
	return nil
}

// --------------------------------------------------------------------------
// Fan-out
// --------------------------------------------------------------------------

// MultiSink delivers to every sink in order and joins their errors. A
// failing sink does not stop the others.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, d notifications.Delivery) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every delivery in memory. Used by the CLI simulator and
// tests. Read Deliveries directly only once writers are done; use All while
// deliveries may still arrive.
type Recorder struct {
	mu         sync.Mutex
	Deliveries []notifications.Delivery
}

func (r *Recorder) Deliver(_ context.Context, d notifications.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deliveries = append(r.Deliveries, d)
	return nil
}

// All returns a copy of the recorded deliveries.
func (r *Recorder) All() []notifications.Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Delivery(nil), r.Deliveries...)
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = MultiSink(nil)
	_ Sink = (*Recorder)(nil)
	_ Sink = SinkFunc(nil)
)
