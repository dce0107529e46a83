// Command api is the notification scheduling service.
//
// Usage:
//
//	notify-api
//	API_PORT=8080 NOTIFY_TIMEZONE=Europe/Berlin notify-api

// @title Notify Engine API
// @version 1.0.0
// @description Notification scheduling service: per-priority rate limiting, quiet hours, low-priority digest batching and analytics-driven schedule suggestions.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Notify Engine
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/notify-engine/internal/api"
	"github.com/albapepper/notify-engine/internal/api/handler"
	"github.com/albapepper/notify-engine/internal/bootstrap"
	"github.com/albapepper/notify-engine/internal/cache"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/listener"
	"github.com/albapepper/notify-engine/internal/maintenance"

	_ "github.com/albapepper/notify-engine/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := bootstrap.Open(ctx, cfg, bootstrap.Options{Sinks: true}, logger)
	if err != nil {
		logger.Error("Failed to open backends", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	engine := deps.Engine(logger)

	// Initialize cache
	appCache := cache.New(ctx, cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Settings written by other replicas arrive over LISTEN/NOTIFY
	var dbCheck handler.HealthChecker
	if deps.Pool != nil {
		dbCheck = deps.Pool
		reload := listener.ReloaderFunc(func(ctx context.Context) error {
			if err := deps.Settings.Load(ctx); err != nil {
				return err
			}
			appCache.Invalidate(cache.PrefixOptimization)
			return nil
		})
		go listener.Start(ctx, cfg.DatabaseURL, reload, logger)
	} else {
		logger.Info("Settings listener disabled (no DATABASE_URL)")
	}

	// Batch timers, analytics retention and the daily report
	go func() {
		err := maintenance.Start(ctx, engine, deps.Analytics, maintenance.ConfigFrom(cfg, deps.Location), logger)
		if err != nil {
			logger.Error("Maintenance failed to start", "error", err)
			cancel()
		}
	}()

	// Create router
	router := api.NewRouter(engine, appCache, dbCheck, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Notify Engine API",
			"addr", addr,
			"environment", cfg.Environment,
			"timezone", deps.Location.String(),
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	// Pending low-priority batches are flushed rather than lost.
	for _, d := range engine.FlushAll(shutdownCtx) {
		logger.Info("Flushed pending batch", "group", d.Group, "items", d.Size())
	}
	logger.Info("Server stopped")
}
