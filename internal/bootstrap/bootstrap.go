// Package bootstrap picks the storage and delivery backends both commands
// share. Every backend is optional: without DATABASE_URL, REDIS_URL or
// AMQP_URL the engine runs fully in memory and logs its deliveries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/db"
	"github.com/albapepper/notify-engine/internal/delivery"
	"github.com/albapepper/notify-engine/internal/scheduler"
	"github.com/albapepper/notify-engine/internal/settings"
)

// Deps are the opened backends. Close releases them.
type Deps struct {
	Pool      *db.Pool // nil without DATABASE_URL
	Settings  *settings.Manager
	Analytics analytics.Store
	Sink      delivery.Sink
	Location  *time.Location

	closers []func()
}

// Options selects what Open connects.
type Options struct {
	// Sinks wires the outbox and AMQP sinks. Commands that never deliver
	// leave it off.
	Sinks bool
}

// Open connects the configured backends and loads persisted settings.
// Settings prefer Redis over Postgres over memory; analytics prefer
// Postgres over memory.
func Open(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Deps, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	d := &Deps{Location: loc}

	if cfg.DatabaseURL != "" {
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.Pool = pool
		d.closers = append(d.closers, pool.Close)
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
	}

	var store settings.Store
	switch {
	case cfg.RedisURL != "":
		rs, err := settings.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, func() { rs.Close() })
		store = rs
		logger.Info("Settings backend", "store", "redis")
	case d.Pool != nil:
		store = settings.NewPostgresStore(d.Pool)
		logger.Info("Settings backend", "store", "postgres")
	default:
		store = settings.NewMemoryStore()
		logger.Info("Settings backend", "store", "memory")
	}
	d.Settings = settings.NewManager(store)
	if err := d.Settings.Load(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if d.Pool != nil {
		d.Analytics = analytics.NewPostgresStore(d.Pool)
	} else {
		d.Analytics = analytics.NewMemoryStore()
	}

	sinks := delivery.MultiSink{delivery.NewLogSink(logger)}
	if opts.Sinks {
		if d.Pool != nil {
			sinks = append(sinks, delivery.NewOutboxSink(d.Pool))
			logger.Info("Delivery sink enabled", "sink", "outbox")
		}
		if cfg.AMQPURL != "" {
			as, err := delivery.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
			if err != nil {
				d.Close()
				return nil, fmt.Errorf("connect to broker: %w", err)
			}
			d.closers = append(d.closers, func() { as.Close() })
			sinks = append(sinks, as)
			logger.Info("Delivery sink enabled", "sink", "amqp", "exchange", cfg.AMQPExchange)
		}
	}
	d.Sink = sinks
	return d, nil
}

// Engine builds a scheduling engine over the opened backends.
func (d *Deps) Engine(logger *slog.Logger) *scheduler.Engine {
	return scheduler.New(scheduler.Options{
		Settings: d.Settings,
		Sink:     d.Sink,
		Recorder: d.Analytics,
		Source:   d.Analytics,
		Location: d.Location,
		Logger:   logger,
	})
}

// Close releases backends in reverse order of opening.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
