package scheduler

// Runner is a unit of work invoked by the Dispatcher.
// Run must not block indefinitely and must not call back into the Dispatcher.
type Runner interface {
	Run()
}

// Func adapts an ordinary function to the Runner interface.
type Func func()

// Run calls f().
func (f Func) Run() { f() }

// Task describes one entry of a task table.
//
// Handle and Interval are owned by the caller and treated as read-only by the
// Dispatcher. An Interval of 0 marks a continuous task that runs on every
// dispatch pass; N > 0 runs the task once every N ticks.
type Task struct {
	Handle   Runner
	Interval uint32

	// lastRun is the tick at which the Dispatcher last invoked Handle.
	lastRun uint32
}

// NewTask returns a task descriptor for h with the given interval.
func NewTask(h Runner, interval uint32) Task {
	return Task{Handle: h, Interval: interval}
}

// Continuous reports whether the task runs on every dispatch pass.
func (t *Task) Continuous() bool {
	return t.Interval == 0
}

// due reports whether a periodic task is eligible at tick now.
// Unsigned subtraction keeps the comparison correct across a counter rollover.
func (t *Task) due(now uint32) bool {
	return now-t.lastRun >= t.Interval
}

// prime sets lastRun so that the first pass at tick 0 finds the task due.
func (t *Task) prime() {
	if t.Interval > 0 {
		t.lastRun = MaxTick - t.Interval + 1
	}
}
