package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/jobs"
)

type submitJobRequest struct {
	Kind    adforge.JobKind `json:"kind"`
	Request json.RawMessage `json:"request"`
}

type jobAccepted struct {
	JobID  string            `json:"job_id"`
	Status adforge.JobStatus `json:"status"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		unavailable(w, "job runner")
		return
	}
	var req submitJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	queueCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	job, err := s.deps.Jobs.Submit(queueCtx, req.Kind, req.Request)
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrInvalidKind), errors.Is(err, jobs.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "job queue is full")
		default:
			s.logger.Error("submit job failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, jobAccepted{JobID: job.ID, Status: job.Status})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		unavailable(w, "job runner")
		return
	}
	job, err := s.deps.Jobs.Get(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": job})
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		unavailable(w, "job runner")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	job, err := s.deps.Jobs.Cancel(r.Context(), jobID)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobAccepted{JobID: jobID, Status: job.Status})
}

func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrFinished):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("job request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
