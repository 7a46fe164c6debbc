package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/nacansino/lean-scheduler/internal/config"
	"github.com/nacansino/lean-scheduler/internal/logging"
	"github.com/nacansino/lean-scheduler/internal/store"
	"github.com/nacansino/lean-scheduler/internal/tasks"
	"github.com/nacansino/lean-scheduler/pkg/model"
	"github.com/nacansino/lean-scheduler/pkg/scheduler"
	"github.com/spf13/cobra"
)

// loaded is a config file turned into an initialized dispatcher.
type loaded struct {
	path       string
	cfg        *config.Config
	dispatcher *scheduler.Dispatcher
	table      *tasks.Table
}

// loadDispatcher reads the config at path, builds its tasks and initializes a
// dispatcher over them.
func loadDispatcher(cmd *cobra.Command, path string) (*loaded, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyConfigLogging(cmd, cfg)

	d := scheduler.New(scheduler.WithLogger(logger))
	tbl, err := tasks.Build(cfg.Tasks, d.TickCount, logger)
	if err != nil {
		return nil, fmt.Errorf("build tasks: %w", err)
	}
	if err := d.Init(tbl.Tasks, len(tbl.Tasks), cfg.TickPeriod); err != nil {
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}
	return &loaded{path: path, cfg: cfg, dispatcher: d, table: tbl}, nil
}

// applyConfigLogging rebuilds the logger from the config file's log_level and
// log_format. Flags given on the command line win.
func applyConfigLogging(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	levelSet := f.Changed("log-level") || f.Changed("debug")
	formatSet := f.Changed("log-format")
	if levelSet && formatSet {
		return
	}

	level, format := flagLogLevel, flagLogFormat
	if !levelSet && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	if !formatSet && cfg.LogFormat != "" {
		format = cfg.LogFormat
	}
	logger = logging.New(logging.Options{
		Level:  logging.ParseLevel(level),
		Format: format,
		Output: cmd.ErrOrStderr(),
	})
}

// dbPath resolves the history database: --db wins over the config file.
func dbPath(cfg *config.Config) string {
	if flagDB != "" {
		return flagDB
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath
	}
	return config.Default().DBPath
}

func openStore(ctx context.Context, path string) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return st, nil
}

// taskStats converts live counters to the stored form.
func taskStats(tbl *tasks.Table) []model.TaskStat {
	snap := tbl.Snapshot()
	out := make([]model.TaskStat, len(snap))
	for i, s := range snap {
		out[i] = model.TaskStat{Name: s.Name, Interval: s.Interval, Invocations: s.Invocations}
	}
	return out
}

func intervalLabel(iv uint32) string {
	if iv == 0 {
		return "continuous"
	}
	return humanize.Comma(int64(iv))
}

func printTaskStats(w io.Writer, stats []model.TaskStat) {
	fmt.Fprintf(w, "%-24s  %-12s  %s\n", "TASK", "INTERVAL", "INVOCATIONS")
	fmt.Fprintf(w, "%-24s  %-12s  %s\n", "----", "--------", "-----------")
	for _, s := range stats {
		fmt.Fprintf(w, "%-24s  %-12s  %s\n", s.Name, intervalLabel(s.Interval), humanize.Comma(int64(s.Invocations)))
	}
}
