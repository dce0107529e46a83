package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/albapepper/notify-engine/internal/db"
	"github.com/albapepper/notify-engine/internal/notifications"
)

// OutboxSink writes deliveries to the notification_outbox table for a
// downstream push worker to claim. Re-delivering the same ID is a no-op.
type OutboxSink struct {
	q db.Querier
}

// NewOutboxSink wraps a pool whose connections carry the insert_outbox
// prepared statement.
func NewOutboxSink(q db.Querier) *OutboxSink {
	return &OutboxSink{q: q}
}

func (s *OutboxSink) Deliver(ctx context.Context, d notifications.Delivery) error {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode outbox data: %w", err)
	}
	_, err = s.q.Exec(ctx, "insert_outbox",
		d.ID, string(d.Kind), string(d.Trigger), string(d.Group), int16(d.Priority),
		d.Title, d.Body, data, d.Size(), d.At)
	if err != nil {
		return fmt.Errorf("insert outbox %s: %w", d.ID, err)
	}
	return nil
}

var _ Sink = (*OutboxSink)(nil)
