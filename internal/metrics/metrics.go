package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_jobs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job metrics
var (
	JobsScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_jobs_scheduled_total",
			Help: "Total number of jobs accepted by the scheduler",
		},
		[]string{"type", "priority"},
	)

	JobsUnscheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_jobs_unscheduled_total",
			Help: "Total number of jobs cancelled before they started",
		},
		[]string{"type"},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_jobs_completed_total",
			Help: "Total number of jobs that ran, by outcome",
		},
		[]string{"type", "status"}, // "finished", "failed", "cancelled"
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_jobs_job_duration_seconds",
			Help:    "Job body run time in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"type"},
	)

	JobQueueWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_jobs_job_queue_wait_seconds",
			Help:    "Time between scheduling and start of a job",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60, 300, 1800},
		},
		[]string{"priority"},
	)

	JobsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_jobs_pending",
			Help: "Number of jobs waiting to run",
		},
	)

	JobRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_job_running",
			Help: "Whether a job is currently running (1 = running, 0 = idle)",
		},
	)

	SchedulerSuspended = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_scheduler_suspended",
			Help: "Whether the scheduler is suspended (1 = suspended, 0 = running)",
		},
	)

	JobsRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_jobs_jobs_recovered_total",
			Help: "Total number of persisted jobs rescheduled at startup",
		},
	)
)

// Photo job output metrics
var (
	PhotoBytesHashed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_jobs_photo_bytes_hashed_total",
			Help: "Total number of photo bytes read by hash jobs",
		},
	)

	ThumbnailPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_jobs_thumbnail_phase_duration_seconds",
			Help:    "Thumbnail generation time per phase",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase"}, // "decode", "resize", "encode", "write"
	)

	SidecarsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_jobs_sidecars_written_total",
			Help: "Total number of XMP sidecars written",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_jobs_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBStoredJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_db_stored_jobs",
			Help: "Number of job records in the jobs table",
		},
	)

	LibraryPhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_library_photos",
			Help: "Number of photos in the library",
		},
	)

	LibraryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_library_tags",
			Help: "Number of tags in the library",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_jobs_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_filesystem_retry_attempts_total",
			Help: "Total number of retries after a stale NFS file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_filesystem_retry_failures_total",
			Help: "Total number of operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_jobs_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)
)

// Memory guard metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_jobs_memory_paused",
			Help: "Whether the memory guard holds the scheduler (1 = holding, 0 = released)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_jobs_memory_pauses_total",
			Help: "Total number of times the memory guard suspended the scheduler",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_jobs_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
