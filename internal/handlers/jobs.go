package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"photo-jobs/internal/jobs"
	"photo-jobs/internal/photojobs"
	"photo-jobs/internal/scheduler"
)

// SubmitRequest describes a single job to submit.
type SubmitRequest struct {
	Type       string     `json:"type"`
	Options    string     `json:"options"`
	Priority   string     `json:"priority,omitempty"`
	RunAt      *time.Time `json:"runAt,omitempty"`
	Persistent bool       `json:"persistent"`
}

// QuerySubmitRequest submits one job per photo matched by a tag query.
type QuerySubmitRequest struct {
	Type       string  `json:"type"`
	Tags       []int64 `json:"tags"`
	Op         string  `json:"op,omitempty"`
	Untagged   bool    `json:"untagged,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	Persistent bool    `json:"persistent"`
}

// QuerySubmitResponse reports the jobs created for a tag query.
type QuerySubmitResponse struct {
	Query string      `json:"query"`
	SQL   string      `json:"sql"`
	Count int         `json:"count"`
	Jobs  []jobs.Info `json:"jobs"`
}

// PriorityRequest changes the priority of a waiting job.
type PriorityRequest struct {
	Priority string `json:"priority"`
}

// JobsResponse lists the running job and the waiting jobs in run order.
type JobsResponse struct {
	Current   *jobs.Info  `json:"current,omitempty"`
	Pending   []jobs.Info `json:"pending"`
	Suspended bool        `json:"suspended"`
}

// ListJobs returns the running job and the waiting jobs
func (h *Handlers) ListJobs(w http.ResponseWriter, _ *http.Request) {
	response := JobsResponse{
		Pending:   []jobs.Info{},
		Suspended: h.sched.Suspended(),
	}
	if current := h.sched.Current(); current != nil {
		info := current.Snapshot()
		response.Current = &info
	}
	for _, job := range h.sched.Pending() {
		response.Pending = append(response.Pending, job.Snapshot())
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// ListJobTypes returns the registered job types
func (h *Handlers) ListJobTypes(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.registry.Types())
}

// SubmitJob builds and schedules a single job
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	priority, err := jobs.ParsePriority(req.Priority)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sreq := scheduler.Request{
		Type:       req.Type,
		Options:    req.Options,
		Priority:   priority,
		Persistent: req.Persistent,
	}
	if req.RunAt != nil {
		sreq.RunAt = *req.RunAt
	}

	job, err := h.sched.Submit(r.Context(), sreq)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, job.Snapshot())
}

// SubmitQueryJobs submits one job per photo matched by a tag query
func (h *Handlers) SubmitQueryJobs(w http.ResponseWriter, r *http.Request) {
	var req QuerySubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !h.registry.Has(req.Type) {
		writeJSONError(w, "Unknown job type", http.StatusBadRequest)
		return
	}

	priority, err := jobs.ParsePriority(req.Priority)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	term, err := h.buildTerm(r.Context(), req.Tags, req.Op, req.Untagged)
	if err != nil {
		writeTermError(w, err)
		return
	}
	where, err := whereClause(term)
	if err != nil {
		writeTermError(w, err)
		return
	}

	submitted, err := photojobs.EnqueueForQuery(r.Context(), h.sched, h.db, req.Type, term, priority, req.Persistent)
	response := QuerySubmitResponse{
		Query: term.String(),
		SQL:   where,
		Count: len(submitted),
		Jobs:  make([]jobs.Info, 0, len(submitted)),
	}
	for _, job := range submitted {
		response.Jobs = append(response.Jobs, job.Snapshot())
	}
	if err != nil {
		log.Warn("bulk submit for %s stopped after %d jobs: %v", term, len(submitted), err)
		writeSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, response)
}

// CancelJob cancels a waiting job or asks the running job to stop
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	if err := h.sched.Cancel(id); err != nil {
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSONStatus(w, "cancelled")
}

// UpdateJobPriority changes the priority of a waiting job
func (h *Handlers) UpdateJobPriority(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	var req PriorityRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Priority == "" {
		writeJSONError(w, "Priority is required", http.StatusBadRequest)
		return
	}
	priority, err := jobs.ParsePriority(req.Priority)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sched.Reprioritize(r.Context(), id, priority); err != nil {
		var perr *jobs.PersistenceError
		if errors.As(err, &perr) {
			log.Error("persisting priority of job %d: %v", id, err)
			writeJSONError(w, "Failed to store priority", http.StatusInternalServerError)
			return
		}
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}

	job, found := h.sched.Job(id)
	if !found {
		writeJSONStatus(w, "updated")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, job.Snapshot())
}

// SuspendScheduler stops the worker from starting new jobs
func (h *Handlers) SuspendScheduler(w http.ResponseWriter, _ *http.Request) {
	h.sched.Suspend()
	writeJSONStatus(w, "suspended")
}

// ResumeScheduler undoes one SuspendScheduler call
func (h *Handlers) ResumeScheduler(w http.ResponseWriter, _ *http.Request) {
	h.sched.Resume()
	if h.sched.Suspended() {
		writeJSONStatus(w, "suspended")
		return
	}
	writeJSONStatus(w, "running")
}

func jobID(w http.ResponseWriter, r *http.Request) (jobs.ID, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		writeJSONError(w, "Invalid job id", http.StatusBadRequest)
		return 0, false
	}
	return jobs.ID(id), true
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var perr *jobs.PersistenceError
	switch {
	case errors.Is(err, jobs.ErrUnknownJobType):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, scheduler.ErrClosed):
		writeJSONError(w, "Scheduler is shutting down", http.StatusServiceUnavailable)
	case errors.As(err, &perr):
		log.Error("submitting job: %v", err)
		writeJSONError(w, "Failed to store job", http.StatusInternalServerError)
	case errors.Is(err, jobs.ErrInvalidState):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		// Factory rejected the options.
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	}
}
