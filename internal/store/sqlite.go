package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nacansino/lean-scheduler/pkg/model"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Each :memory: connection is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// CreateRun inserts run and its task stats in one transaction.
// An empty run.ID is replaced with a generated one.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if !run.Mode.Valid() {
		return fmt.Errorf("create run %s: invalid mode %q", run.ID, run.Mode)
	}
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, config_path, tick_period_ns, ticks, passes, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.ConfigPath, int64(run.TickPeriod), int64(run.Ticks), int64(run.Passes),
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for i, t := range run.Tasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_tasks (run_id, position, name, interval, invocations) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i, t.Name, int64(t.Interval), int64(t.Invocations),
		)
		if err != nil {
			return fmt.Errorf("insert run task %s/%s: %w", run.ID, t.Name, err)
		}
	}
	return tx.Commit()
}

// GetRun returns the run with the given id, or nil, nil when none exists.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, config_path, tick_period_ns, ticks, passes, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadTasks(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first, optionally filtered by mode.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, error) {
	opts.Clamp()
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "mode", opts.Mode)

	query := `SELECT id, mode, config_path, tick_period_ns, ticks, passes, started_at, finished_at FROM runs`
	args := []any{}
	if opts.Mode != "" {
		query += ` WHERE mode = ?`
		args = append(args, string(opts.Mode))
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, run := range runs {
		if err := s.loadTasks(ctx, run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) loadTasks(ctx context.Context, run *model.Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, interval, invocations FROM run_tasks WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("load tasks for %s: %w", run.ID, err)
	}
	defer rows.Close()

	run.Tasks = []model.TaskStat{}
	for rows.Next() {
		var t model.TaskStat
		var interval, invocations int64
		if err := rows.Scan(&t.Name, &interval, &invocations); err != nil {
			return err
		}
		t.Interval = uint32(interval)
		t.Invocations = uint64(invocations)
		run.Tasks = append(run.Tasks, t)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.Run, error) {
	var run model.Run
	var mode, startedAt, finishedAt string
	var period, ticks, passes int64

	if err := sc.Scan(&run.ID, &mode, &run.ConfigPath, &period, &ticks, &passes, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Mode = model.RunMode(mode)
	run.TickPeriod = time.Duration(period)
	run.Ticks = uint64(ticks)
	run.Passes = uint64(passes)
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	return &run, nil
}
