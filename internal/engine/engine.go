// Package engine drives a scheduler.Dispatcher in real time.
//
// It plays the two roles the dispatcher leaves to its environment: a timer
// goroutine that calls Tick once per tick period, and a main loop that calls
// Run at least once per tick.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nacansino/lean-scheduler/pkg/scheduler"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("engine already started")

// Config holds engine timing.
type Config struct {
	TickPeriod   time.Duration // used when the dispatcher has no tick period hint
	PassInterval time.Duration // main loop cadence; half the tick period when zero
}

// DefaultConfig returns a 10ms tick with a pass every 5ms.
func DefaultConfig() Config {
	return Config{
		TickPeriod:   10 * time.Millisecond,
		PassInterval: 5 * time.Millisecond,
	}
}

// Engine owns the timer and main loop goroutines for one dispatcher.
type Engine struct {
	dispatcher *scheduler.Dispatcher
	config     Config
	logger     *slog.Logger

	passes atomic.Uint64

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an engine for d. d should already be initialized.
func New(d *scheduler.Dispatcher, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		dispatcher: d,
		config:     cfg,
		logger:     logger.With("component", "engine"),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// TickPeriod returns the period the timer goroutine uses: the dispatcher's
// hint, then Config.TickPeriod, then the default.
func (e *Engine) TickPeriod() time.Duration {
	if p := e.dispatcher.TickPeriod(); p > 0 {
		return p
	}
	if e.config.TickPeriod > 0 {
		return e.config.TickPeriod
	}
	return DefaultConfig().TickPeriod
}

func (e *Engine) passInterval() time.Duration {
	if e.config.PassInterval > 0 {
		return e.config.PassInterval
	}
	tick := e.TickPeriod()
	if half := tick / 2; half > 0 {
		return half
	}
	return tick
}

// Start runs the timer goroutine and the main loop. It blocks until ctx is
// cancelled or Stop is called, and returns only after both have exited.
//
// An Engine runs once. Start after Stop returns nil without dispatching, and
// a second Start returns ErrAlreadyStarted.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()
	defer close(e.doneCh)

	tickPeriod, passInterval := e.TickPeriod(), e.passInterval()
	e.logger.Info("engine started",
		"tasks", e.dispatcher.Len(),
		"tick_period", tickPeriod,
		"pass_interval", passInterval,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.timer(ctx, tickPeriod)
	}()
	defer wg.Wait()

	ticker := time.NewTicker(passInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping (context cancelled)", "passes", e.passes.Load(), "tick", e.dispatcher.TickCount())
			return ctx.Err()
		case <-e.stopCh:
			e.logger.Info("engine stopping (stop called)", "passes", e.passes.Load(), "tick", e.dispatcher.TickCount())
			return nil
		case <-ticker.C:
			e.Pass()
		}
	}
}

// timer advances the tick counter until ctx is done or Stop is called.
func (e *Engine) timer(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.dispatcher.Tick()
		}
	}
}

// Stop ends Start and waits for it to return. Calling Stop more than once, or
// before Start, is safe.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.stopped {
		e.stopped = true
		close(e.stopCh)
	}
	started := e.started
	e.mu.Unlock()

	if started {
		<-e.doneCh
	}
	return nil
}

// Pass performs one dispatch pass. It must not be called concurrently with
// Start's main loop.
func (e *Engine) Pass() {
	e.dispatcher.Run()
	e.passes.Add(1)
}

// Passes returns the number of dispatch passes performed so far.
func (e *Engine) Passes() uint64 {
	return e.passes.Load()
}
