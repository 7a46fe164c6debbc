package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testTickPeriod = 10 * time.Millisecond

// counter is a stateful Runner that records how often and at which ticks it ran.
type counter struct {
	d     *Dispatcher
	calls int
	ticks []uint32
}

func (c *counter) Run() {
	c.calls++
	if c.d != nil {
		c.ticks = append(c.ticks, c.d.TickCount())
	}
}

func noop() {}

func TestTick_IncrementsAndReads(t *testing.T) {
	d := New()
	require.Equal(t, uint32(0), d.TickCount())
	require.Equal(t, uint32(1), d.Tick())
	require.Equal(t, uint32(2), d.Tick())

	for i := 0; i < 65536; i++ {
		d.Tick()
	}
	require.Equal(t, uint32(2+65536+1), d.Tick())
	require.Equal(t, uint32(2+65536+1), d.TickCount())
}

func TestTick_Wraps(t *testing.T) {
	d := New()
	d.ticks.Store(MaxTick - 1)
	require.Equal(t, uint32(MaxTick), d.Tick())
	require.Equal(t, uint32(0), d.Tick())
	require.Equal(t, uint32(1), d.Tick())
}

func TestTick_CountsCompletedCalls(t *testing.T) {
	d := New()
	for n := 1; n <= 1000; n++ {
		d.Tick()
		require.Equal(t, uint32(n), d.TickCount())
	}
}

func TestInit_ResetsCounter(t *testing.T) {
	d := New()
	d.Tick()
	d.Tick()

	tasks := []Task{NewTask(Func(noop), 3)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))
	require.Equal(t, uint32(0), d.TickCount())
	require.True(t, d.Ready())
	require.Equal(t, 1, d.Len())
	require.Equal(t, testTickPeriod, d.TickPeriod())
}

func TestInit_EmptyTable(t *testing.T) {
	d := New()
	require.NoError(t, d.Init(nil, 0, testTickPeriod))
	require.True(t, d.Ready())
	require.Equal(t, 0, d.Len())
	d.Run()
}

func TestInit_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		count int
	}{
		{"nil table", nil, 2},
		{"negative count", []Task{NewTask(Func(noop), 1)}, -1},
		{"count exceeds table", []Task{NewTask(Func(noop), 1)}, 2},
		{"nil first handle", []Task{{Interval: 1}, NewTask(Func(noop), 1)}, 2},
		{"nil last handle", []Task{NewTask(Func(noop), 1), {Interval: 0}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			err := d.Init(tt.tasks, tt.count, testTickPeriod)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
			require.False(t, d.Ready())
			require.Equal(t, 0, d.Len())
		})
	}
}

func TestInit_NilHandleOutsideCountIsIgnored(t *testing.T) {
	d := New()
	tasks := []Task{NewTask(Func(noop), 1), {Interval: 1}}
	require.NoError(t, d.Init(tasks, 1, testTickPeriod))
	require.Equal(t, 1, d.Len())
}

func TestInit_FailureLeavesPriorStateUntouched(t *testing.T) {
	d := New()
	a := &counter{}
	bound := []Task{NewTask(a, 0), NewTask(Func(noop), 4)}
	require.NoError(t, d.Init(bound, len(bound), testTickPeriod))

	d.Run()
	for i := 0; i < 3; i++ {
		d.Tick()
	}
	lastRunBefore := bound[1].lastRun

	// Slot 0 is valid and periodic: a single-pass validate-and-mutate would
	// prime it before discovering the nil handle in slot 1.
	other := []Task{NewTask(Func(noop), 9), {Interval: 2}}
	err := d.Init(other, len(other), time.Second)
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Equal(t, uint32(0), other[0].lastRun, "rejected table must not be primed")
	require.Equal(t, uint32(3), d.TickCount())
	require.Equal(t, testTickPeriod, d.TickPeriod())
	require.Equal(t, 2, d.Len())
	require.Equal(t, lastRunBefore, bound[1].lastRun)

	err = d.Init(nil, 5, time.Second)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, uint32(3), d.TickCount())

	d.Run()
	require.Equal(t, 2, a.calls, "first table must still be bound")
}

func TestRun_Uninitialized(t *testing.T) {
	var d Dispatcher
	d.Run()
	require.False(t, d.Ready())
	require.Equal(t, uint32(1), d.Tick())
	d.Run()
}

func TestRun_ContinuousTaskEveryPass(t *testing.T) {
	d := New()
	c := &counter{}
	tasks := []Task{NewTask(c, 0)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	for i := 0; i < 50; i++ {
		d.Run()
	}
	require.Equal(t, 50, c.calls)
}

func TestRun_PeriodicImmediateThenWaits(t *testing.T) {
	d := New()
	c := &counter{d: d}
	tasks := []Task{NewTask(c, 4)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	d.Run()
	require.Equal(t, 1, c.calls, "periodic task must fire on the first pass")

	d.Run()
	require.Equal(t, 1, c.calls, "same tick must not fire twice")

	for i := 0; i < 3; i++ {
		d.Tick()
		d.Run()
	}
	require.Equal(t, 1, c.calls, "fewer than interval ticks elapsed")

	d.Tick()
	d.Run()
	require.Equal(t, 2, c.calls)
	require.Equal(t, []uint32{0, 4}, c.ticks)
}

func TestRun_SingleCatchUpFiring(t *testing.T) {
	d := New()
	c := &counter{d: d}
	tasks := []Task{NewTask(c, 3)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	d.Run()
	for i := 0; i < 40; i++ {
		d.Tick()
	}
	d.Run()
	d.Run()
	require.Equal(t, 2, c.calls)
	require.Equal(t, []uint32{0, 40}, c.ticks)

	// The next firing is measured from the catch-up tick, not from the missed periods.
	d.Tick()
	d.Tick()
	d.Run()
	require.Equal(t, 2, c.calls)
	d.Tick()
	d.Run()
	require.Equal(t, 3, c.calls)
}

func TestRun_MixedIntervalsScenario(t *testing.T) {
	d := New()
	a, b, c := &counter{}, &counter{}, &counter{}
	tasks := []Task{NewTask(a, 1), NewTask(b, 5), NewTask(c, 7)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	for i := 0; i < 100; i++ {
		d.Run()
		d.Tick()
	}
	require.Equal(t, 100, a.calls)
	require.Equal(t, 20, b.calls)
	require.Equal(t, 15, c.calls)
}

func TestRun_RegistrationOrder(t *testing.T) {
	d := New()
	var order []int
	mk := func(id int) Runner { return Func(func() { order = append(order, id) }) }
	tasks := []Task{NewTask(mk(1), 2), NewTask(mk(2), 0), NewTask(mk(3), 1)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	d.Run()
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestRun_DueAtWraparoundBoundary(t *testing.T) {
	d := New()
	c := &counter{d: d}
	tasks := []Task{NewTask(c, 5)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	d.Run()
	require.Equal(t, 1, c.calls)

	d.ticks.Store(MaxTick - 4)
	d.Run()
	require.Equal(t, 2, c.calls)

	// Next due tick is (MaxTick-4)+5, i.e. exactly 0 after the wrap.
	fired := 0
	for i := 0; i < 9; i++ {
		d.Tick()
		before := c.calls
		d.Run()
		fired += c.calls - before
	}
	require.Equal(t, 1, fired)
	require.Equal(t, uint32(0), c.ticks[len(c.ticks)-1])
}

func TestRun_PrimedAcrossWraparound(t *testing.T) {
	d := New()
	c := &counter{d: d}
	tasks := []Task{NewTask(c, MaxTick)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))
	require.Equal(t, uint32(1), tasks[0].lastRun)

	d.Run()
	require.Equal(t, 1, c.calls)
}

func TestRun_DoesNotTruncateOnContent(t *testing.T) {
	d := New()
	c := &counter{}
	tasks := []Task{NewTask(Func(noop), 0), NewTask(c, 0)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))
	d.Run()
	require.Equal(t, 1, c.calls)
}

func TestRun_ConcurrentTicks(t *testing.T) {
	d := New()
	c := &counter{}
	tasks := []Task{NewTask(c, 1)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	const ticks = 10000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < ticks; i++ {
			d.Tick()
		}
	}()
	for {
		select {
		case <-done:
			d.Run()
			require.Equal(t, uint32(ticks), d.TickCount())
			require.LessOrEqual(t, c.calls, ticks+1)
			require.GreaterOrEqual(t, c.calls, 1)
			return
		default:
			d.Run()
		}
	}
}

func TestDispatcher_RunAllocatesNothing(t *testing.T) {
	d := New()
	tasks := []Task{NewTask(Func(noop), 0), NewTask(Func(noop), 2)}
	require.NoError(t, d.Init(tasks, len(tasks), testTickPeriod))

	allocs := testing.AllocsPerRun(100, func() {
		d.Run()
		d.Tick()
	})
	require.Zero(t, allocs)
}

func TestTask_Continuous(t *testing.T) {
	cont := NewTask(Func(noop), 0)
	per := NewTask(Func(noop), 10)
	require.True(t, cont.Continuous())
	require.False(t, per.Continuous())
}
