// Package database provides SQLite storage for the photo job service.
//
// It holds:
//   - photos, tags and the photo_tags relation, queried with the terms
//     compiled by package query
//   - the jobs table, exposed through JobStore, which the scheduler uses to
//     persist jobs and to reload them after a restart
//   - a metadata key/value table (schema version, last job recovery)
//
// The database uses WAL mode so API reads do not block the job worker.
package database
