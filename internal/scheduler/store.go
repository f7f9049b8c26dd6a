package scheduler

import (
	"context"
	"time"

	"photo-jobs/internal/jobs"
)

// Store persists job records so that pending work survives a restart.
type Store interface {
	// Insert persists a new record and returns its id.
	Insert(ctx context.Context, rec jobs.Record) (int64, error)
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, recordID int64) error
	// AllPending returns every stored record in submission order.
	AllPending(ctx context.Context) ([]jobs.Record, error)
}

// PriorityUpdater is implemented by stores that can persist a priority change.
type PriorityUpdater interface {
	UpdatePriority(ctx context.Context, recordID int64, p jobs.Priority) error
}

// Request describes a job to be built through the registry and scheduled.
type Request struct {
	Type       string
	Options    string
	Priority   jobs.Priority
	RunAt      time.Time
	Persistent bool
}
