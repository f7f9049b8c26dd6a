// Package photojobs implements the background jobs run against the photo
// library: content hashing, thumbnail generation and XMP sidecar writing.
//
// Every job takes the decimal id of a photo as its options string, so a
// stored job record can be rebuilt through the registry after a restart.
// Register wires the job types into a jobs.Registry; EnqueueForQuery
// submits one job per photo matched by a tag query.
package photojobs
