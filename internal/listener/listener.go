// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// live settings in step with writes made by other replicas. It holds a
// dedicated pgx connection (not from the pool) listening on the settings
// channel; every notification payload is the key that changed.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/metrics"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Reloader re-reads persisted settings. *settings.Manager satisfies it.
type Reloader interface {
	Load(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

func (f ReloaderFunc) Load(ctx context.Context) error { return f(ctx) }

// Start opens a dedicated connection and listens on the settings channel. It
// reconnects with exponential backoff on connection loss and reloads once per
// (re)connect to cover writes missed while disconnected. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, r Reloader, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, r, logger, func() { backoff = reconnectBackoff })
		if ctx.Err() != nil {
			logger.Info("Settings listener stopped (context cancelled)")
			return
		}

		logger.Error("Settings listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = nextBackoff(backoff)
		case <-ctx.Done():
			return
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxReconnect)
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, r Reloader, logger *slog.Logger, connected func()) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{config.SettingsChannel}.Sanitize())
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", config.SettingsChannel, err)
	}
	logger.Info("Settings listener connected", "channel", config.SettingsChannel)
	connected()

	if err := reload(ctx, r, "", logger); err != nil {
		logger.Warn("Settings reload failed", "error", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := Handle(ctx, n, r, logger); err != nil {
			logger.Warn("Settings reload failed", "key", n.Payload, "error", err)
		}
	}
}

// Handle reloads settings for one notification. Notifications on other
// channels are ignored.
func Handle(ctx context.Context, n *pgconn.Notification, r Reloader, logger *slog.Logger) error {
	if n == nil || n.Channel != config.SettingsChannel {
		return nil
	}
	return reload(ctx, r, n.Payload, logger)
}

func reload(ctx context.Context, r Reloader, key string, logger *slog.Logger) error {
	if err := r.Load(ctx); err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	metrics.SettingsReloads.Inc()
	logger.Debug("Settings reloaded", "key", key)
	return nil
}
