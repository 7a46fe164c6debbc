package model

import (
	"testing"
	"time"
)

func TestListOptions_Clamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-5, 20},
		{7, 7},
		{100, 100},
		{500, 100},
	}
	for _, tt := range tests {
		o := ListOptions{Limit: tt.in}
		o.Clamp()
		if o.Limit != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, o.Limit, tt.want)
		}
	}
}

func TestRun_DurationAndTotals(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Run{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Tasks: []TaskStat{
			{Name: "a", Interval: 1, Invocations: 100},
			{Name: "b", Interval: 5, Invocations: 20},
		},
	}
	if got := r.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %s", got)
	}
	if got := r.TotalInvocations(); got != 120 {
		t.Errorf("TotalInvocations() = %d, want 120", got)
	}

	r.FinishedAt = time.Time{}
	if got := r.Duration(); got != 0 {
		t.Errorf("Duration() with unset finish = %s, want 0", got)
	}
}

func TestRunMode_Valid(t *testing.T) {
	if !RunModeRealtime.Valid() || !RunModeSimulate.Valid() {
		t.Error("known modes must be valid")
	}
	if RunMode("replay").Valid() {
		t.Error("unknown mode must be invalid")
	}
}
