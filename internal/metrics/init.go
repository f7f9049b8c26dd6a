package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics(jobTypes []string) {
	priorities := []string{"lowest", "low", "normal", "high", "highest"}

	for _, typ := range jobTypes {
		for _, p := range priorities {
			JobsScheduledTotal.WithLabelValues(typ, p)
		}
		for _, status := range []string{"finished", "failed", "cancelled"} {
			JobsCompletedTotal.WithLabelValues(typ, status)
		}
		JobsUnscheduledTotal.WithLabelValues(typ)
		JobDuration.WithLabelValues(typ)
	}
	for _, p := range priorities {
		JobQueueWait.WithLabelValues(p)
	}

	for _, phase := range []string{"decode", "resize", "encode", "write"} {
		ThumbnailPhaseDuration.WithLabelValues(phase)
	}

	volumes := []string{"photos", "cache", "database", "unknown"}
	ops := []string{"stat", "open", "write"}
	for _, vol := range volumes {
		for _, op := range ops {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"insert_job", "delete_job", "all_pending_jobs", "update_job_priority",
		"add_photo", "get_photo", "query_photos", "set_content_hash", "set_thumbnail_path",
		"mark_metadata_synced", "create_tag", "tag_photo", "load_tag_tree", "get_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
