// Package scheduler implements a fixed-table, tick-driven cooperative
// dispatcher.
//
// A Dispatcher borrows a caller-owned slice of Task descriptors. An external
// timer calls Tick once per time quantum and an external main loop calls Run
// repeatedly; each Run walks the table once, in registration order, and
// invokes every task that is due. Tasks run to completion on the caller's
// goroutine. Nothing in the dispatch path allocates.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// MaxTick is the largest value of the tick counter before it wraps to zero.
const MaxTick = math.MaxUint32

// ErrInvalidInput is returned by Init when the task table is rejected.
var ErrInvalidInput = errors.New("invalid scheduler input")

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to report initialization outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger.With("component", "dispatcher")
		}
	}
}

// Dispatcher decides on each pass which tasks are due and invokes them.
//
// The zero value is an uninitialized Dispatcher: Run is a no-op and Tick and
// TickCount operate on the counter alone.
//
// Tick and TickCount may be called from any goroutine, concurrently with Run.
// Run and Init must not be called concurrently with each other or with
// themselves.
type Dispatcher struct {
	tasks      []Task
	ticks      atomic.Uint32
	tickPeriod time.Duration
	ready      bool
	logger     *slog.Logger
}

// New creates an uninitialized Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init binds tasks[:count] to the dispatcher and resets the tick counter.
//
// The slice is borrowed, not copied: the caller keeps ownership of the backing
// array and must keep it alive and unmodified (apart from reading) for as long
// as the Dispatcher is in use. tickPeriod documents the cadence at which the
// caller intends to call Tick; it is not used in any internal arithmetic.
//
// Every precondition is checked before anything is modified. If Init returns
// an error wrapping ErrInvalidInput, the previous binding, the tick counter and
// all per-task bookkeeping are left exactly as they were.
func (d *Dispatcher) Init(tasks []Task, count int, tickPeriod time.Duration) error {
	if err := validate(tasks, count); err != nil {
		d.log().Warn("task table rejected", "error", err)
		return err
	}

	table := tasks[:count:count]
	for i := range table {
		table[i].prime()
	}
	d.tasks = table
	d.tickPeriod = tickPeriod
	d.ticks.Store(0)
	d.ready = true

	d.log().Debug("scheduler initialized", "tasks", count, "tick_period", tickPeriod)
	return nil
}

func validate(tasks []Task, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: negative task count %d", ErrInvalidInput, count)
	}
	if count == 0 {
		return nil
	}
	if tasks == nil {
		return fmt.Errorf("%w: nil task table with count %d", ErrInvalidInput, count)
	}
	if count > len(tasks) {
		return fmt.Errorf("%w: count %d exceeds table length %d", ErrInvalidInput, count, len(tasks))
	}
	for i := 0; i < count; i++ {
		if tasks[i].Handle == nil {
			return fmt.Errorf("%w: task %d has no handle", ErrInvalidInput, i)
		}
	}
	return nil
}

// Tick advances the tick counter by one, wrapping at MaxTick, and returns the
// new value. It never blocks.
func (d *Dispatcher) Tick() uint32 {
	return d.ticks.Add(1)
}

// TickCount returns the current value of the tick counter.
func (d *Dispatcher) TickCount() uint32 {
	return d.ticks.Load()
}

// Run performs one dispatch pass.
//
// Continuous tasks are invoked unconditionally. A periodic task is invoked
// when at least Interval ticks have elapsed since its previous invocation,
// and then only once, however many periods were missed. A slow task delays
// every task after it in the table. Panics raised by a task are not recovered.
func (d *Dispatcher) Run() {
	for i := range d.tasks {
		t := &d.tasks[i]
		if t.Interval == 0 {
			t.Handle.Run()
			continue
		}
		now := d.ticks.Load()
		if t.due(now) {
			t.Handle.Run()
			t.lastRun = now
		}
	}
}

// Ready reports whether Init has succeeded at least once.
func (d *Dispatcher) Ready() bool {
	return d.ready
}

// Len returns the number of bound tasks.
func (d *Dispatcher) Len() int {
	return len(d.tasks)
}

// TickPeriod returns the tick cadence hint supplied to Init.
func (d *Dispatcher) TickPeriod() time.Duration {
	return d.tickPeriod
}

func (d *Dispatcher) log() *slog.Logger {
	if d.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.logger
}
