// Package logging provides a simple leveled logging interface for the
// photo job service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to DEBUG with DEBUG=1.
//
// Components that log a lot (the scheduler, the database, job bodies) use a
// named logger so that their lines can be filtered:
//
//	var log = logging.Named("scheduler")
//	log.Info("job %d started", id)
package logging
