package metrics

import (
	"context"
	"errors"

	"photo-jobs/internal/jobs"
	"photo-jobs/internal/scheduler"
)

// schedulerObserver turns scheduler events into job metrics.
type schedulerObserver struct{}

// NewSchedulerObserver returns a scheduler.Listener that records job metrics.
func NewSchedulerObserver() scheduler.Listener {
	return &schedulerObserver{}
}

func (o *schedulerObserver) HandleEvent(e scheduler.Event) {
	JobsPending.Set(float64(e.Pending))

	typ := e.Job.Type()
	switch e.Kind {
	case scheduler.EventScheduled:
		JobsScheduledTotal.WithLabelValues(typ, e.Job.Priority().String()).Inc()
	case scheduler.EventUnscheduled:
		JobsUnscheduledTotal.WithLabelValues(typ).Inc()
	case scheduler.EventStarted:
		JobRunning.Set(1)
		info := e.Job.Snapshot()
		if info.StartedAt != nil {
			JobQueueWait.WithLabelValues(info.Priority).Observe(info.StartedAt.Sub(info.CreatedAt).Seconds())
		}
	case scheduler.EventFinished, scheduler.EventFailed:
		JobRunning.Set(0)
		JobsCompletedTotal.WithLabelValues(typ, outcome(e)).Inc()
		JobDuration.WithLabelValues(typ).Observe(e.Job.Duration().Seconds())
	}
}

func outcome(e scheduler.Event) string {
	if e.Kind == scheduler.EventFinished {
		return "finished"
	}
	if errors.Is(e.Err, jobs.ErrCancelled) || errors.Is(e.Err, context.Canceled) {
		return "cancelled"
	}
	return "failed"
}
