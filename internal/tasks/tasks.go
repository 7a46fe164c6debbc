// Package tasks turns task table entries from the config file into
// scheduler.Runner values and keeps per-task invocation statistics.
package tasks

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nacansino/lean-scheduler/internal/config"
	"github.com/nacansino/lean-scheduler/pkg/scheduler"
)

// Clock returns the current tick count. Normally Dispatcher.TickCount.
type Clock func() uint32

// Counted wraps a Runner and records how often it ran and at which tick.
// Counters may be read from any goroutine while the dispatcher runs.
type Counted struct {
	Name     string
	Interval uint32

	inner    scheduler.Runner
	clock    Clock
	calls    atomic.Uint64
	lastTick atomic.Uint32
	totalNs  atomic.Int64
	maxNs    atomic.Int64
}

// NewCounted wraps r.
func NewCounted(name string, interval uint32, r scheduler.Runner, clock Clock) *Counted {
	return &Counted{Name: name, Interval: interval, inner: r, clock: clock}
}

// Run invokes the wrapped runner and updates the counters.
// The tick is read before the body runs so it matches the tick the dispatcher
// fired on. A task body that runs long delays every task after it in the
// pass, so the slowest run is kept alongside the total.
func (c *Counted) Run() {
	if c.clock != nil {
		c.lastTick.Store(c.clock())
	}

	start := time.Now()
	c.inner.Run()
	elapsed := int64(time.Since(start))

	c.totalNs.Add(elapsed)
	if elapsed > c.maxNs.Load() {
		c.maxNs.Store(elapsed)
	}
	c.calls.Add(1)
}

// Invocations returns the number of completed runs.
func (c *Counted) Invocations() uint64 {
	return c.calls.Load()
}

// Stat is a point-in-time view of one task's counters.
type Stat struct {
	Name        string        `json:"name"`
	Interval    uint32        `json:"interval"`
	Invocations uint64        `json:"invocations"`
	LastTick    uint32        `json:"last_tick"`
	MaxRuntime  time.Duration `json:"max_runtime_ns"`
	AvgRuntime  time.Duration `json:"avg_runtime_ns"`
}

// Stat returns the current counters.
func (c *Counted) Stat() Stat {
	st := Stat{
		Name:        c.Name,
		Interval:    c.Interval,
		Invocations: c.calls.Load(),
		LastTick:    c.lastTick.Load(),
		MaxRuntime:  time.Duration(c.maxNs.Load()),
	}
	if st.Invocations > 0 {
		st.AvgRuntime = time.Duration(c.totalNs.Load() / int64(st.Invocations))
	}
	return st
}

// Table is a task table ready to be handed to Dispatcher.Init.
// Tasks[i] runs Counters[i].
type Table struct {
	Tasks    []scheduler.Task
	Counters []*Counted
}

// Build creates one task per spec, in order.
func Build(specs []config.TaskSpec, clock Clock, logger *slog.Logger) (*Table, error) {
	tbl := &Table{
		Tasks:    make([]scheduler.Task, 0, len(specs)),
		Counters: make([]*Counted, 0, len(specs)),
	}
	for _, spec := range specs {
		r, err := newRunner(spec, clock, logger)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", spec.Name, err)
		}
		c := NewCounted(spec.Name, spec.Interval, r, clock)
		tbl.Tasks = append(tbl.Tasks, scheduler.NewTask(c, spec.Interval))
		tbl.Counters = append(tbl.Counters, c)
	}
	return tbl, nil
}

func newRunner(spec config.TaskSpec, clock Clock, logger *slog.Logger) (scheduler.Runner, error) {
	switch spec.Kind {
	case config.KindNoop, "":
		return scheduler.Func(func() {}), nil
	case config.KindLog:
		return newLogTask(spec, clock, logger), nil
	case config.KindScript:
		return NewScript(spec.Name, spec.Script, clock, logger)
	default:
		return nil, fmt.Errorf("unknown kind %q", spec.Kind)
	}
}

// Snapshot returns the counters of every task in table order.
func (t *Table) Snapshot() []Stat {
	out := make([]Stat, len(t.Counters))
	for i, c := range t.Counters {
		out[i] = c.Stat()
	}
	return out
}

type logTask struct {
	message string
	clock   Clock
	logger  *slog.Logger
}

func newLogTask(spec config.TaskSpec, clock Clock, logger *slog.Logger) *logTask {
	msg := spec.Message
	if msg == "" {
		msg = "task ran"
	}
	return &logTask{
		message: msg,
		clock:   clock,
		logger:  logger.With("task", spec.Name),
	}
}

func (t *logTask) Run() {
	var tick uint32
	if t.clock != nil {
		tick = t.clock()
	}
	t.logger.Info(t.message, "tick", tick)
}
