// Command notifyctl is the operator CLI for the notification engine.
//
// Usage:
//
//	notifyctl report --days 7
//	notifyctl config show
//	notifyctl config set schedule.quiet_start 23
//	notifyctl config reset batch
//	notifyctl simulate daily_reward daily_reward challenge --start 2026-03-02T23:00:00Z
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/notify-engine/internal/bootstrap"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/settings"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "notifyctl",
		Short:        "Notification engine operator CLI",
		SilenceUsage: true,
	}
	root.AddCommand(reportCmd())
	root.AddCommand(configCmd())
	root.AddCommand(simulateCmd())
	return root
}

// --------------------------------------------------------------------------
// report command
// --------------------------------------------------------------------------

func reportCmd() *cobra.Command {
	var days int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print schedule optimization suggestions from recorded analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return withDeps(func(ctx context.Context, deps *bootstrap.Deps) error {
				report, err := deps.Engine(logger).OptimizationReport(ctx, time.Duration(days)*24*time.Hour)
				if err != nil {
					return fmt.Errorf("build report: %w", err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				for _, line := range report.Lines() {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Timeframe in days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// --------------------------------------------------------------------------
// config command
// --------------------------------------------------------------------------

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change persisted settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, deps *bootstrap.Deps) error {
				printValues(cmd.OutOrStdout(), deps.Settings)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting (values are clamped into range)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, deps *bootstrap.Deps) error {
				if err := deps.Settings.SetField(ctx, args[0], args[1]); err != nil {
					return err
				}
				printValues(cmd.OutOrStdout(), deps.Settings)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "reset <schedule|batch>",
		Short:     "Restore defaults for one section",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"schedule", "batch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, deps *bootstrap.Deps) error {
				var err error
				switch args[0] {
				case "schedule":
					err = deps.Settings.ResetScheduleDefaults(ctx)
				case "batch":
					err = deps.Settings.ResetBatchDefaults(ctx)
				default:
					return fmt.Errorf("unknown section %q (want schedule or batch)", args[0])
				}
				if err != nil {
					return err
				}
				printValues(cmd.OutOrStdout(), deps.Settings)
				return nil
			})
		},
	})
	return cmd
}

func printValues(w io.Writer, m *settings.Manager) {
	values := m.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-28s %s\n", k, values[k])
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func withDeps(fn func(ctx context.Context, deps *bootstrap.Deps) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, err := bootstrap.Open(ctx, cfg, bootstrap.Options{}, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(ctx, deps)
}
