package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-jobs/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Scheduler state
	PendingJobs int    `json:"pendingJobs"`
	RunningJob  string `json:"runningJob,omitempty"`
	Suspended   bool   `json:"suspended"`
	Error       string `json:"error,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. A scheduler that hit
// a job store error reports degraded.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		PendingJobs:  h.sched.Len(),
		Suspended:    h.sched.Suspended(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if current := h.sched.Current(); current != nil {
		response.RunningJob = current.Type()
	}

	if err := h.sched.Err(); err != nil {
		response.Status = statusDegraded
		response.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}
