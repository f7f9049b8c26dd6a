package scheduler

import (
	"time"

	"photo-jobs/internal/jobs"
)

// EventKind identifies what happened to a job.
type EventKind int

const (
	// EventScheduled fires once a job has been accepted by Schedule.
	EventScheduled EventKind = iota
	// EventUnscheduled fires when a waiting job is cancelled.
	EventUnscheduled
	// EventStarted fires right before the job body is invoked.
	EventStarted
	// EventFinished fires when the body returned without error.
	EventFinished
	// EventFailed fires when the body returned an error or panicked.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventScheduled:
		return "scheduled"
	case EventUnscheduled:
		return "unscheduled"
	case EventStarted:
		return "started"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle change. Status is the job status at the time
// the event fired; Pending is the number of jobs still waiting.
type Event struct {
	Kind    EventKind
	Job     *jobs.Job
	Status  jobs.Status
	Err     error
	Pending int
	Time    time.Time
}

// Listener receives scheduler events. HandleEvent runs on the goroutine that
// caused the event (the worker for Started/Finished/Failed) and must not
// block for long.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) {
	f(e)
}
