package model

import "time"

// RunMode records how a run drove the dispatcher.
type RunMode string

const (
	RunModeRealtime RunMode = "run"      // engine with wall-clock timer
	RunModeSimulate RunMode = "simulate" // deterministic pass/tick loop
)

// Valid reports whether m is a known mode.
func (m RunMode) Valid() bool {
	return m == RunModeRealtime || m == RunModeSimulate
}

// Run is one recorded execution of a task table.
type Run struct {
	ID         string        `json:"id"`
	Mode       RunMode       `json:"mode"`
	ConfigPath string        `json:"config_path"`
	TickPeriod time.Duration `json:"tick_period"`
	Ticks      uint64        `json:"ticks"`
	Passes     uint64        `json:"passes"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Tasks      []TaskStat    `json:"tasks"`
}

// Duration returns the wall-clock length of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TotalInvocations sums invocations across all tasks.
func (r *Run) TotalInvocations() uint64 {
	var n uint64
	for _, t := range r.Tasks {
		n += t.Invocations
	}
	return n
}

// TaskStat is the per-task outcome of a run.
type TaskStat struct {
	Name        string `json:"name"`
	Interval    uint32 `json:"interval"`
	Invocations uint64 `json:"invocations"`
}
