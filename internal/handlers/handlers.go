package handlers

import (
	"time"

	"photo-jobs/internal/database"
	"photo-jobs/internal/jobs"
	"photo-jobs/internal/scheduler"
)

type Handlers struct {
	db        *database.Database
	sched     *scheduler.Scheduler
	registry  *jobs.Registry
	startTime time.Time
}

func New(db *database.Database, sched *scheduler.Scheduler, registry *jobs.Registry) *Handlers {
	return &Handlers{
		db:        db,
		sched:     sched,
		registry:  registry,
		startTime: time.Now(),
	}
}
