package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/db"
	"github.com/albapepper/notify-engine/internal/notifications"
)

// PostgresStore appends one row per event and aggregates with GROUP BY.
type PostgresStore struct {
	q db.Querier
}

// NewPostgresStore wraps a pool whose connections carry the prepared
// insert statements registered by db.New.
func NewPostgresStore(q db.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.q.Exec(ctx, "insert_attempt",
		string(a.Category), int16(a.Priority), string(a.Group), string(a.Outcome),
		int16(a.Hour), int16(a.Weekday), a.At)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordEngagement(ctx context.Context, e Engagement) error {
	_, err := s.q.Exec(ctx, "insert_engagement",
		e.NotificationID, string(e.Group), int16(e.Hour), int16(e.Weekday), e.At)
	if err != nil {
		return fmt.Errorf("record engagement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Snapshot(ctx context.Context, since time.Time) (Counters, error) {
	out := make(Counters)

	rows, err := s.q.Query(ctx, `
		SELECT category, priority, group_name, outcome, hour, weekday, COUNT(*)
		FROM `+config.AttemptsTable+`
		WHERE occurred_at >= $1
		GROUP BY category, priority, group_name, outcome, hour, weekday`, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate attempts: %w", err)
	}
	for rows.Next() {
		var (
			category, group, outcome string
			priority, hour, weekday  int16
			n                        int64
		)
		if err := rows.Scan(&category, &priority, &group, &outcome, &hour, &weekday, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attempt aggregate: %w", err)
		}
		out.AddAttempt(Attempt{
			Category: notifications.Category(category),
			Priority: notifications.Priority(priority),
			Group:    notifications.Group(group),
			Outcome:  Outcome(outcome),
			Hour:     int(hour),
			Weekday:  time.Weekday(weekday),
		}, int(n))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate attempts: %w", err)
	}

	rows, err = s.q.Query(ctx, `
		SELECT hour, weekday, COUNT(*)
		FROM `+config.EngagementsTable+`
		WHERE occurred_at >= $1
		GROUP BY hour, weekday`, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate engagements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			hour, weekday int16
			n             int64
		)
		if err := rows.Scan(&hour, &weekday, &n); err != nil {
			return nil, fmt.Errorf("scan engagement aggregate: %w", err)
		}
		out.AddEngagement(int(hour), time.Weekday(weekday), int(n))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate engagements: %w", err)
	}
	return out, nil
}

// Prune deletes attempts and engagements that occurred before the cutoff.
func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for _, table := range []string{config.AttemptsTable, config.EngagementsTable} {
		tag, err := s.q.Exec(ctx, `DELETE FROM `+table+` WHERE occurred_at < $1`, before)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

var _ Store = (*PostgresStore)(nil)
