package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis/momentum/internal/scheduler"
	"github.com/wonny/aegis/momentum/pkg/logger"
)

// JobRunner is the part of the scheduler the API drives
type JobRunner interface {
	GetJobStats() map[string]scheduler.JobStats
	RunJob(ctx context.Context, jobName string) (scheduler.JobResult, error)
}

// JobsHandler exposes scheduler state
type JobsHandler struct {
	jobs   JobRunner
	logger *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobs JobRunner, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		jobs:   jobs,
		logger: log,
	}
}

// ListJobs returns per-job run statistics
// GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// RunJob runs a job now and returns its result
// POST /api/jobs/{name}/run
func (h *JobsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	result, err := h.jobs.RunJob(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job":     name,
		"success": result.Success,
	}).Info("Job run via API")

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, result)
}
