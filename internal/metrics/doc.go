// Package metrics provides Prometheus instrumentation for the photo job
// service. All metrics are prefixed with "photo_jobs_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration: by method and mux route template
//   - HTTPRequestsInFlight
//
// ## Job Metrics
//
// Driven by scheduler events through NewSchedulerObserver:
//   - JobsScheduledTotal: by job type and priority
//   - JobsUnscheduledTotal: jobs cancelled while waiting
//   - JobsCompletedTotal: by type and outcome (finished, failed, cancelled)
//   - JobDuration, JobQueueWait
//   - JobsPending, JobRunning
//
// Sampled by the Collector: SchedulerSuspended, and JobsPending again so the
// gauge stays right while no events fire.
//
// ## Photo Job Metrics
//   - PhotoBytesHashed, ThumbnailPhaseDuration, SidecarsWritten
//
// ## Database Metrics
//   - DBQueryTotal, DBQueryDuration: by operation
//   - DBConnectionsOpen, DBStoredJobs, LibraryPhotosTotal, LibraryTagsTotal
//
// ## Filesystem Metrics
//
// Recorded through NewFilesystemObserver, installed with
// filesystem.SetObserver at startup:
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors
//
// # Usage
//
//	metrics.SetAppInfo(version, commit, runtime.Version())
//	metrics.InitializeMetrics(registry.Types())
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	sched := scheduler.New(scheduler.WithListener(metrics.NewSchedulerObserver()))
//
//	collector := metrics.NewCollector(db, sched, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// The registry is the Prometheus default registry; expose it with
// promhttp.Handler().
package metrics
