package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/delivery"
	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/scheduler"
	"github.com/albapepper/notify-engine/internal/settings"
)

type simOptions struct {
	Start      time.Time
	Interval   time.Duration
	Location   *time.Location
	NoBatching bool
	Drain      bool
}

func simulateCmd() *cobra.Command {
	var (
		start, tz  string
		opts       simOptions
		noBatching bool
	)
	cmd := &cobra.Command{
		Use:   "simulate <category>...",
		Short: "Run categories through an in-memory engine with default settings",
		Long: "Each category becomes one request, spaced --interval apart from --start.\n" +
			"Nothing is persisted and nothing is delivered outside this process.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("--timezone: %w", err)
			}
			opts.Location = loc
			opts.NoBatching = noBatching
			opts.Start = time.Now()
			if start != "" {
				if opts.Start, err = time.Parse(time.RFC3339, start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Simulated start time, RFC3339 (default now)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Minute, "Gap between requests")
	cmd.Flags().StringVar(&tz, "timezone", "UTC", "Time zone for quiet hours")
	cmd.Flags().BoolVar(&noBatching, "no-batching", false, "Disable low-priority batching")
	cmd.Flags().BoolVar(&opts.Drain, "drain", true, "Advance the clock until every batch timer fires")
	return cmd
}

func runSimulation(ctx context.Context, w io.Writer, opts simOptions, categories []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reqs := make([]notifications.Category, 0, len(categories))
	for _, s := range categories {
		c, err := notifications.ParseCategory(s)
		if err != nil {
			return err
		}
		reqs = append(reqs, c)
	}

	now := opts.Start
	sink := &delivery.Recorder{}
	mgr := settings.NewManager(nil)
	if opts.NoBatching {
		if err := mgr.SetBatchingEnabled(ctx, false); err != nil {
			return err
		}
	}
	engine := scheduler.New(scheduler.Options{
		Settings: mgr,
		Sink:     sink,
		Recorder: analytics.NewMemoryStore(),
		Location: opts.Location,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:    func() time.Time { return now },
	})

	for i, c := range reqs {
		if i > 0 {
			now = now.Add(opts.Interval)
			fireDue(ctx, w, engine, now)
		}
		req, err := notifications.NewRequest(c, notifications.Payload{
			ID:    fmt.Sprintf("sim-%d", i+1),
			Title: string(c),
			Body:  fmt.Sprintf("%s #%d", c, i+1),
		}, now)
		if err != nil {
			return err
		}
		d := engine.Schedule(ctx, req, now)
		fmt.Fprintf(w, "%s  %-16s %-8s -> %-11s pending=%d\n",
			now.In(opts.Location).Format("Mon 15:04"), c, c.Priority(), d.Outcome, d.Pending)
		for _, out := range d.Deliveries {
			printDelivery(w, now, opts.Location, out)
		}
	}

	if opts.Drain {
		for {
			wake, ok := engine.NextWake()
			if !ok {
				break
			}
			now = wake
			fireDue(ctx, w, engine, now)
		}
	}

	fmt.Fprintf(w, "delivered %d notification(s) from %d request(s)\n", len(sink.All()), len(reqs))
	return nil
}

func fireDue(ctx context.Context, w io.Writer, engine *scheduler.Engine, now time.Time) {
	for _, out := range engine.Tick(ctx, now) {
		printDelivery(w, now, engine.Location(), out)
	}
}

func printDelivery(w io.Writer, now time.Time, loc *time.Location, d notifications.Delivery) {
	fmt.Fprintf(w, "%s  deliver %-6s %-9s %-8s %q (%d item(s))\n",
		now.In(loc).Format("Mon 15:04"), d.Kind, d.Trigger, d.Group, d.Title, d.Size())
}
