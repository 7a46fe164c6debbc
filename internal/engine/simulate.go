package engine

import "github.com/nacansino/lean-scheduler/pkg/scheduler"

// SimResult summarizes a Simulate call.
type SimResult struct {
	Ticks     int    // ticks advanced
	Passes    int    // dispatch passes performed
	FinalTick uint32 // counter value after the last tick
}

// Simulate drives d without a clock: one dispatch pass, then one tick,
// repeated ticks times. A periodic task with interval N therefore fires on
// the passes at ticks 0, N, 2N, ... below ticks.
func Simulate(d *scheduler.Dispatcher, ticks int) SimResult {
	res := SimResult{}
	for i := 0; i < ticks; i++ {
		d.Run()
		res.Passes++
		res.FinalTick = d.Tick()
		res.Ticks++
	}
	if ticks <= 0 {
		res.FinalTick = d.TickCount()
	}
	return res
}
