package photojobs

import (
	"context"
	"fmt"

	"photo-jobs/internal/database"
	"photo-jobs/internal/jobs"
	"photo-jobs/internal/query"
	"photo-jobs/internal/scheduler"
)

// Submitter accepts job requests. *scheduler.Scheduler implements it.
type Submitter interface {
	Submit(ctx context.Context, req scheduler.Request) (*jobs.Job, error)
}

// PhotoQuerier selects photos by a tag term.
type PhotoQuerier interface {
	QueryPhotos(ctx context.Context, term query.Term) ([]database.Photo, error)
}

// EnqueueForQuery submits one jobType job for every photo matched by term.
// On a submit failure the jobs accepted so far are returned with the error.
func EnqueueForQuery(ctx context.Context, sub Submitter, photos PhotoQuerier, jobType string, term query.Term, priority jobs.Priority, persistent bool) ([]*jobs.Job, error) {
	matched, err := photos.QueryPhotos(ctx, term)
	if err != nil {
		return nil, err
	}

	submitted := make([]*jobs.Job, 0, len(matched))
	for _, p := range matched {
		job, err := sub.Submit(ctx, scheduler.Request{
			Type:       jobType,
			Options:    Options(p.ID),
			Priority:   priority,
			Persistent: persistent,
		})
		if err != nil {
			return submitted, fmt.Errorf("submitting %s job for photo %d: %w", jobType, p.ID, err)
		}
		submitted = append(submitted, job)
	}

	log.Info("Enqueued %d %s jobs (priority %s)", len(submitted), jobType, priority)
	return submitted, nil
}
