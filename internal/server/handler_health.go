package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Engine    string `json:"engine"`
	Store     string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	engine, st := "detached", "disabled"
	if s.status != nil {
		engine = "attached"
	}
	if s.store != nil {
		st = "sqlite"
	}
	respondOK(w, RequestIDFromContext(r.Context()), healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Engine:    engine,
		Store:     st,
	})
}

type endpointInfo struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), map[string]any{
		"name": "leansched",
		"endpoints": []endpointInfo{
			{"/api/v1/status", "Tick counter, pass count and per-task invocations"},
			{"/api/v1/runs", "Recorded runs, newest first (?limit=, ?mode=)"},
			{"/api/v1/runs/{id}", "Single recorded run"},
			{"/healthz", "Liveness"},
		},
	})
}
