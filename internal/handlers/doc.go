// Package handlers provides the HTTP control surface of the job scheduler.
//
// It includes handlers for:
//   - Listing, submitting, cancelling and reprioritizing jobs
//   - Bulk submission of jobs for a tag query
//   - Suspending and resuming the worker
//   - Previewing the photos and SQL selected by a tag query
//   - Health checks, version and Prometheus metrics
package handlers
