package jobs

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Runner is the body of a job. Implementations must be safe to run again from
// scratch after the process died half way, and should return promptly once
// ctx is cancelled (returning ErrCancelled or ctx.Err()).
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// CancelOutcome describes what RequestCancel did.
type CancelOutcome int

const (
	// CancelNotScheduled means the job was never handed to a scheduler.
	CancelNotScheduled CancelOutcome = iota
	// CancelDequeued means the job was waiting and is now Failed with ErrCancelled.
	CancelDequeued
	// CancelSignalled means the job is running and its context was cancelled.
	CancelSignalled
	// CancelTooLate means the job had already reached a terminal state.
	CancelTooLate
)

// Job is one schedulable unit of background work.
//
// Type, options, run-at and the body are fixed at construction. Priority
// belongs to the creator until the job is scheduled; from then on only the
// scheduler changes it. Status moves forward only:
// Created -> Scheduled -> Running -> Finished|Failed, with the extra edge
// Scheduled -> Failed for a job cancelled before it started.
type Job struct {
	typ     string
	options string
	runAt   time.Time
	runner  Runner

	mu         sync.Mutex
	id         ID
	recordID   int64
	priority   Priority
	status     Status
	err        error
	cancel     context.CancelFunc
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// Option configures a Job at construction.
type Option func(*Job)

// WithPriority sets the initial priority (default PriorityNormal).
func WithPriority(p Priority) Option {
	return func(j *Job) { j.priority = p }
}

// WithRunAt delays the job until t.
func WithRunAt(t time.Time) Option {
	return func(j *Job) { j.runAt = t }
}

// WithRecordID links the job to its persisted record.
func WithRecordID(id int64) Option {
	return func(j *Job) { j.recordID = id }
}

// New creates a job in StatusCreated.
func New(jobType, options string, r Runner, opts ...Option) *Job {
	j := &Job{
		typ:       jobType,
		options:   options,
		runner:    r,
		priority:  PriorityNormal,
		status:    StatusCreated,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ID returns the scheduler-assigned id, 0 before scheduling.
func (j *Job) ID() ID {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id
}

// RecordID returns the id of the persisted record, 0 for transient jobs.
func (j *Job) RecordID() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.recordID
}

// Persistent reports whether the job has a persisted record.
func (j *Job) Persistent() bool {
	return j.RecordID() != 0
}

// Type returns the job type discriminator.
func (j *Job) Type() string { return j.typ }

// Options returns the serialized job options.
func (j *Job) Options() string { return j.options }

// RunAt returns the earliest start time, zero meaning "as soon as possible".
func (j *Job) RunAt() time.Time { return j.runAt }

// Priority returns the current priority.
func (j *Job) Priority() Priority {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.priority
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the terminal error of a failed job.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Cancelled reports whether the job failed because it was cancelled.
func (j *Job) Cancelled() bool {
	return errors.Is(j.Err(), ErrCancelled)
}

// Record returns the persisted form of the job.
func (j *Job) Record() Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Record{
		ID:       j.recordID,
		Type:     j.typ,
		Options:  j.options,
		RunAt:    j.runAt,
		Priority: j.priority,
	}
}

// SetRecordID links a created job to its persisted record.
func (j *Job) SetRecordID(id int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusCreated {
		return notEditable(j.id, j.status)
	}
	j.recordID = id
	return nil
}

// SetPriority changes the priority of a job that has not started yet.
func (j *Job) SetPriority(p Priority) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusCreated && j.status != StatusScheduled {
		return notEditable(j.id, j.status)
	}
	j.priority = p
	return nil
}

// MarkScheduled moves a created job to StatusScheduled under the given id.
func (j *Job) MarkScheduled(id ID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusCreated {
		return invalidTransition(j.id, j.status, StatusScheduled)
	}
	j.id = id
	j.status = StatusScheduled
	return nil
}

// MarkRunning moves a scheduled job to StatusRunning. The returned context is
// derived from parent and is cancelled by RequestCancel or Finish.
func (j *Job) MarkRunning(parent context.Context) (context.Context, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusScheduled {
		return nil, invalidTransition(j.id, j.status, StatusRunning)
	}
	ctx, cancel := context.WithCancel(parent)
	j.cancel = cancel
	j.status = StatusRunning
	j.startedAt = time.Now()
	return ctx, nil
}

// Run invokes the job body.
func (j *Job) Run(ctx context.Context) error {
	if j.runner == nil {
		return errors.New("job has no body")
	}
	return j.runner.Run(ctx)
}

// Finish records the outcome of a running job and returns the new status.
func (j *Job) Finish(err error) (Status, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return j.status, invalidTransition(j.id, j.status, StatusFinished)
	}
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
	j.finishedAt = time.Now()
	if err != nil {
		j.status = StatusFailed
		j.err = err
	} else {
		j.status = StatusFinished
	}
	return j.status, nil
}

// RequestCancel cancels a waiting job outright, or asks a running job to stop.
// A running job is never interrupted; its body has to notice ctx.Done().
func (j *Job) RequestCancel() CancelOutcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.status {
	case StatusCreated:
		return CancelNotScheduled
	case StatusScheduled:
		j.status = StatusFailed
		j.err = ErrCancelled
		j.finishedAt = time.Now()
		return CancelDequeued
	case StatusRunning:
		if j.cancel != nil {
			j.cancel()
		}
		return CancelSignalled
	default:
		return CancelTooLate
	}
}

// Info is a point-in-time view of a job, safe to serialize.
type Info struct {
	ID         ID         `json:"id"`
	RecordID   int64      `json:"recordId,omitempty"`
	Type       string     `json:"type"`
	Options    string     `json:"options"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	RunAt      *time.Time `json:"runAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Snapshot returns the current Info of the job.
func (j *Job) Snapshot() Info {
	j.mu.Lock()
	defer j.mu.Unlock()
	info := Info{
		ID:        j.id,
		RecordID:  j.recordID,
		Type:      j.typ,
		Options:   j.options,
		Priority:  j.priority.String(),
		Status:    j.status.String(),
		CreatedAt: j.createdAt,
	}
	if j.err != nil {
		info.Error = j.err.Error()
	}
	if !j.runAt.IsZero() {
		t := j.runAt
		info.RunAt = &t
	}
	if !j.startedAt.IsZero() {
		t := j.startedAt
		info.StartedAt = &t
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		info.FinishedAt = &t
	}
	return info
}

// Duration returns how long the body ran, zero if it has not finished.
func (j *Job) Duration() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.startedAt.IsZero() || j.finishedAt.IsZero() {
		return 0
	}
	return j.finishedAt.Sub(j.startedAt)
}
