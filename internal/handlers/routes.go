package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes adds the health, version and API routes to r. The metrics
// endpoint is registered only when metricsEnabled is set.
func (h *Handlers) RegisterRoutes(r *mux.Router, metricsEnabled bool) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("livez")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")
	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet).Name("metrics")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs", h.SubmitJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/types", h.ListJobTypes).Methods(http.MethodGet)
	api.HandleFunc("/jobs/query", h.SubmitQueryJobs).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id:[0-9]+}", h.CancelJob).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id:[0-9]+}/priority", h.UpdateJobPriority).Methods(http.MethodPut)
	api.HandleFunc("/scheduler/suspend", h.SuspendScheduler).Methods(http.MethodPost)
	api.HandleFunc("/scheduler/resume", h.ResumeScheduler).Methods(http.MethodPost)
	api.HandleFunc("/photos", h.QueryPhotos).Methods(http.MethodGet)
	api.HandleFunc("/tags", h.ListTags).Methods(http.MethodGet)
}
