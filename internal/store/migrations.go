package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for all tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		mode           TEXT NOT NULL,
		config_path    TEXT NOT NULL DEFAULT '',
		tick_period_ns INTEGER NOT NULL DEFAULT 0,
		ticks          INTEGER NOT NULL DEFAULT 0,
		passes         INTEGER NOT NULL DEFAULT 0,
		started_at     TEXT NOT NULL,
		finished_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS run_tasks (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		name        TEXT NOT NULL,
		interval    INTEGER NOT NULL,
		invocations INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, position)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode)`,
}

// migrate applies the schema inside a single transaction.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrate: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return tx.Commit()
}
