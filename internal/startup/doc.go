// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PHOTO_DIR: Path to the photo library (default: /photos)
//   - CACHE_DIR: Path to the cache directory for thumbnails (default: /cache)
//   - DATABASE_DIR: Path to the database directory (default: /database)
//   - PORT: HTTP server port, also serving /metrics (default: 8080)
//   - METRICS_ENABLED: Expose Prometheus metrics (default: true)
//   - THUMBNAIL_SIZE: Bounding box of generated thumbnails in pixels (default: 256)
//   - SHUTDOWN_TIMEOUT: How long shutdown waits for the running job (default: 30s)
//   - RECOVER_PENDING_JOBS: Re-submit stored jobs at startup (default: true)
//   - SIDECAR_METADATA: Register the sync-metadata job (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO: Container memory limit and heap share, read by the memory package
//
// # Directory Setup
//
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, thumbnails are disabled when not writable
//   - Photo directory: Checked but not required (should be mounted)
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
