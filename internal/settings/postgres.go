package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/db"
)

// PostgresStore keeps settings in the notify_settings table and announces
// every write on the settings channel so other replicas can reload.
type PostgresStore struct {
	q db.Querier
}

// NewPostgresStore wraps a pool or any other Querier.
func NewPostgresStore(q db.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.q.QueryRow(ctx,
		`SELECT value FROM `+config.SettingsTable+` WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO `+config.SettingsTable+` (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	if _, err := s.q.Exec(ctx, `SELECT pg_notify($1, $2)`, config.SettingsChannel, key); err != nil {
		return fmt.Errorf("notify setting %s: %w", key, err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
