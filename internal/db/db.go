// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema bootstrap and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/notify-engine/internal/config"
)

// Querier is the subset of pgxpool.Pool the stores use. pgxmock pools
// satisfy it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Tables must exist before AfterConnect prepares statements against them.
	conn, err := pgx.ConnectConfig(ctx, poolCfg.ConnConfig.Copy())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	err = Migrate(ctx, conn)
	conn.Close(ctx)
	if err != nil {
		return nil, err
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Migrate creates the engine tables when they do not exist yet.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + config.SettingsTable + ` (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ` + config.AttemptsTable + ` (
		id          BIGSERIAL PRIMARY KEY,
		category    TEXT NOT NULL,
		priority    SMALLINT NOT NULL,
		group_name  TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		hour        SMALLINT NOT NULL,
		weekday     SMALLINT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notification_attempts_occurred_at_idx
		ON ` + config.AttemptsTable + ` (occurred_at)`,
	`CREATE TABLE IF NOT EXISTS ` + config.EngagementsTable + ` (
		id              BIGSERIAL PRIMARY KEY,
		notification_id TEXT NOT NULL,
		group_name      TEXT NOT NULL,
		hour            SMALLINT NOT NULL,
		weekday         SMALLINT NOT NULL,
		occurred_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notification_engagements_occurred_at_idx
		ON ` + config.EngagementsTable + ` (occurred_at)`,
	`CREATE TABLE IF NOT EXISTS ` + config.OutboxTable + ` (
		id           TEXT PRIMARY KEY,
		kind         TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		group_name   TEXT NOT NULL,
		priority     SMALLINT NOT NULL,
		title        TEXT NOT NULL,
		body         TEXT NOT NULL,
		data         JSONB NOT NULL DEFAULT '{}'::jsonb,
		item_count   INT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		created_at   TIMESTAMPTZ NOT NULL
	)`,
}

// registerPreparedStatements registers the statements used on hot paths.
// Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Analytics
		"insert_attempt": `INSERT INTO ` + config.AttemptsTable + `
			(category, priority, group_name, outcome, hour, weekday, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		"insert_engagement": `INSERT INTO ` + config.EngagementsTable + `
			(notification_id, group_name, hour, weekday, occurred_at)
			VALUES ($1, $2, $3, $4, $5)`,

		// Delivery outbox
		"insert_outbox": `INSERT INTO ` + config.OutboxTable + `
			(id, kind, trigger_kind, group_name, priority, title, body, data, item_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
