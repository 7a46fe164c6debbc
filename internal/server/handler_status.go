package server

import (
	"net/http"

	"github.com/nacansino/lean-scheduler/internal/engine"
	"github.com/nacansino/lean-scheduler/internal/tasks"
	"github.com/nacansino/lean-scheduler/pkg/model"
	"github.com/nacansino/lean-scheduler/pkg/scheduler"
)

// Status is a snapshot of a running dispatcher.
type Status struct {
	Ready      bool         `json:"ready"`
	Tick       uint32       `json:"tick"`
	Passes     uint64       `json:"passes"`
	TickPeriod string       `json:"tick_period"`
	Tasks      []tasks.Stat `json:"tasks"`
}

// StatusFunc produces a Status on demand. It is called from HTTP handler
// goroutines, so it may only touch concurrency-safe state.
type StatusFunc func() Status

// DispatcherStatus builds a StatusFunc over a dispatcher, the engine driving
// it and the task table it was initialized with.
func DispatcherStatus(d *scheduler.Dispatcher, e *engine.Engine, tbl *tasks.Table) StatusFunc {
	return func() Status {
		st := Status{
			Ready:      d.Ready(),
			Tick:       d.TickCount(),
			TickPeriod: e.TickPeriod().String(),
			Passes:     e.Passes(),
			Tasks:      []tasks.Stat{},
		}
		if tbl != nil {
			st.Tasks = tbl.Snapshot()
		}
		return st
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.status == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
			Code:    model.ErrUnavailable,
			Message: "no dispatcher attached",
		})
		return
	}
	respondOK(w, reqID, s.status())
}
