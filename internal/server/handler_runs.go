package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nacansino/lean-scheduler/pkg/model"
)

func (s *Server) storeUnavailable(w http.ResponseWriter, reqID string) bool {
	if s.store != nil {
		return false
	}
	respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
		Code:    model.ErrUnavailable,
		Message: "run history is disabled",
	})
	return true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.storeUnavailable(w, reqID) {
		return
	}

	opts := model.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("limit must be a number, got %q", v))
			return
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("mode"); v != "" {
		opts.Mode = model.RunMode(v)
		if !opts.Mode.Valid() {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("unknown mode %q", v))
			return
		}
	}

	runs, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{Code: model.ErrInternal, Message: "list runs failed"})
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	respondOK(w, reqID, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.storeUnavailable(w, reqID) {
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.logger.Error("get run", "id", id, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{Code: model.ErrInternal, Message: "get run failed"})
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("Run", id))
		return
	}
	respondOK(w, reqID, run)
}
