package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"photo-jobs/internal/jobs"
	"photo-jobs/internal/logging"
	"photo-jobs/internal/queue"
)

// Default timeout for store calls made from the worker
const storeTimeout = 5 * time.Second

var (
	// ErrClosed is returned once the scheduler has been shut down.
	ErrClosed = errors.New("scheduler is shut down")

	// ErrNoStore is returned when persistence is requested without a store.
	ErrNoStore = errors.New("scheduler has no job store")

	// ErrNoRegistry is returned by Submit and Start without a registry.
	ErrNoRegistry = errors.New("scheduler has no job registry")
)

var log = logging.Named("scheduler")

// Scheduler runs jobs one at a time on a single worker goroutine, highest
// priority first and in submission order within a priority. Schedule, Cancel
// and Reprioritize may be called from any goroutine.
type Scheduler struct {
	queue    *queue.PriorityQueue
	store    Store
	registry *jobs.Registry

	mu           sync.Mutex
	active       map[jobs.ID]*jobs.Job
	delayed      map[jobs.ID]*time.Timer
	listeners    []Listener
	started      bool
	closed       bool
	skipRecovery bool
	recovered    int
	infraErr     error

	nextID    atomic.Int64
	current   atomic.Pointer[jobs.Job]
	suspended atomic.Int32

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wake       chan struct{}
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	doneOnce   sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithStore persists jobs submitted with Persistent set and recovers pending
// records on Start.
func WithStore(st Store) Option {
	return func(s *Scheduler) { s.store = st }
}

// WithRegistry sets the registry used by Submit and by recovery.
func WithRegistry(r *jobs.Registry) Option {
	return func(s *Scheduler) { s.registry = r }
}

// WithoutRecovery makes Start leave stored records alone. They stay in the
// store until a later start recovers them.
func WithoutRecovery() Option {
	return func(s *Scheduler) { s.skipRecovery = true }
}

// WithListener subscribes l to every event.
func WithListener(l Listener) Option {
	return func(s *Scheduler) { s.listeners = append(s.listeners, l) }
}

// New creates a scheduler. Jobs may be scheduled before Start; they run once
// the worker is started.
func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		queue:      queue.New(),
		active:     make(map[jobs.ID]*jobs.Job),
		delayed:    make(map[jobs.ID]*time.Timer),
		baseCtx:    ctx,
		baseCancel: cancel,
		wake:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe adds a listener.
func (s *Scheduler) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start re-submits every pending record from the store, then starts the
// worker. A store failure is returned as *jobs.PersistenceError and leaves
// the scheduler shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.started = true
	s.mu.Unlock()

	if s.store != nil && !s.skipRecovery {
		if err := s.recoverPending(ctx); err != nil {
			s.stop()
			s.doneOnce.Do(func() { close(s.done) })
			return err
		}
	}

	go s.loop()
	log.Info("worker started (%d jobs pending)", s.Len())
	return nil
}

func (s *Scheduler) recoverPending(ctx context.Context) error {
	recs, err := s.store.AllPending(ctx)
	if err != nil {
		return &jobs.PersistenceError{Op: "load pending", Err: err}
	}
	if len(recs) == 0 {
		return nil
	}
	if s.registry == nil {
		return ErrNoRegistry
	}

	recovered := 0
	for _, rec := range recs {
		job, err := s.registry.Build(rec)
		if err != nil {
			log.Warn("skipping stored job %d: %v", rec.ID, err)
			continue
		}
		if _, err := s.Schedule(job); err != nil {
			return fmt.Errorf("rescheduling stored job %d: %w", rec.ID, err)
		}
		recovered++
	}
	s.mu.Lock()
	s.recovered = recovered
	s.mu.Unlock()
	log.Info("recovered %d of %d stored jobs", recovered, len(recs))
	return nil
}

// Recovered returns how many stored jobs Start re-submitted.
func (s *Scheduler) Recovered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// Submit builds a job from req through the registry, persists it if
// requested, and schedules it.
func (s *Scheduler) Submit(ctx context.Context, req Request) (*jobs.Job, error) {
	if s.registry == nil {
		return nil, ErrNoRegistry
	}
	if !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: invalid priority %d", jobs.ErrInvalidState, int(req.Priority))
	}

	job, err := s.registry.Build(jobs.Record{
		Type:     req.Type,
		Options:  req.Options,
		RunAt:    req.RunAt,
		Priority: req.Priority,
	})
	if err != nil {
		return nil, err
	}

	if req.Persistent {
		if s.store == nil {
			return nil, ErrNoStore
		}
		recordID, err := s.store.Insert(ctx, job.Record())
		if err != nil {
			return nil, &jobs.PersistenceError{Op: "insert", Err: err}
		}
		if err := job.SetRecordID(recordID); err != nil {
			return nil, err
		}
	}

	if _, err := s.Schedule(job); err != nil {
		if job.Persistent() {
			if delErr := s.store.Delete(ctx, job.RecordID()); delErr != nil {
				err = errors.Join(err, &jobs.PersistenceError{Op: "delete", Err: delErr})
			}
		}
		return nil, err
	}
	return job, nil
}

// Schedule hands a created job to the scheduler and returns its id. Jobs with
// a future RunAt wait on a timer before they enter the queue.
func (s *Scheduler) Schedule(job *jobs.Job) (jobs.ID, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	id := jobs.ID(s.nextID.Add(1))
	if err := job.MarkScheduled(id); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.active[id] = job
	s.mu.Unlock()

	log.Debug("job %d (%s, %s) scheduled", id, job.Type(), job.Priority())
	s.emit(Event{Kind: EventScheduled, Job: job, Status: jobs.StatusScheduled})

	if delay := time.Until(job.RunAt()); !job.RunAt().IsZero() && delay > 0 {
		s.mu.Lock()
		if job.Status() == jobs.StatusScheduled && !s.closed {
			s.delayed[id] = time.AfterFunc(delay, func() { s.release(id) })
		}
		s.mu.Unlock()
		return id, nil
	}

	s.enqueue(job)
	return id, nil
}

// enqueue puts a scheduled job in the queue and wakes the worker.
func (s *Scheduler) enqueue(job *jobs.Job) {
	if job.Status() != jobs.StatusScheduled {
		return
	}
	s.queue.Enqueue(job)
	s.signal()
}

// release moves a delayed job into the queue once its RunAt has passed.
func (s *Scheduler) release(id jobs.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.delayed[id]; !ok {
		return
	}
	delete(s.delayed, id)
	if job, ok := s.active[id]; ok && !s.closed {
		s.enqueue(job)
	}
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Cancel cancels a job. A waiting job is removed and never starts. A running
// job has its context cancelled and Cancel returns immediately; the body
// decides when to stop.
func (s *Scheduler) Cancel(id jobs.ID) error {
	s.mu.Lock()
	job, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: job %d is not scheduled", jobs.ErrInvalidState, id)
	}

	switch job.RequestCancel() {
	case jobs.CancelDequeued:
		s.queue.Remove(id)
		s.mu.Lock()
		if t, ok := s.delayed[id]; ok {
			t.Stop()
			delete(s.delayed, id)
		}
		delete(s.active, id)
		s.mu.Unlock()

		s.dropRecord(job)
		log.Debug("job %d (%s) unscheduled", id, job.Type())
		s.emit(Event{Kind: EventUnscheduled, Job: job, Status: jobs.StatusFailed, Err: jobs.ErrCancelled})
		return nil
	case jobs.CancelSignalled:
		log.Debug("job %d (%s) asked to stop", id, job.Type())
		return nil
	default:
		return fmt.Errorf("%w: job %d is already %s", jobs.ErrInvalidState, id, job.Status())
	}
}

// UnscheduleType cancels every waiting job of the given type and returns how
// many were cancelled. Running jobs are left alone.
func (s *Scheduler) UnscheduleType(jobType string) int {
	s.mu.Lock()
	var ids []jobs.ID
	for id, job := range s.active {
		if job.Type() == jobType && job.Status() == jobs.StatusScheduled {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if s.Cancel(id) == nil {
			n++
		}
	}
	return n
}

// Reprioritize changes the priority of a waiting job.
func (s *Scheduler) Reprioritize(ctx context.Context, id jobs.ID, p jobs.Priority) error {
	if !p.Valid() {
		return fmt.Errorf("%w: invalid priority %d", jobs.ErrInvalidState, int(p))
	}

	s.mu.Lock()
	job, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: job %d is not scheduled", jobs.ErrInvalidState, id)
	}
	var err error
	if _, delayed := s.delayed[id]; delayed {
		err = job.SetPriority(p)
	} else if !s.queue.Reprioritize(id, p) {
		err = fmt.Errorf("%w: job %d is %s", jobs.ErrInvalidState, id, job.Status())
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if updater, ok := s.store.(PriorityUpdater); ok && job.Persistent() {
		if err := updater.UpdatePriority(ctx, job.RecordID(), p); err != nil {
			return &jobs.PersistenceError{Op: "update priority", Err: err}
		}
	}
	log.Debug("job %d reprioritized to %s", id, p)
	return nil
}

// Suspend stops the worker from starting new jobs. Calls nest.
func (s *Scheduler) Suspend() {
	s.suspended.Add(1)
}

// Resume undoes one Suspend.
func (s *Scheduler) Resume() {
	for {
		n := s.suspended.Load()
		if n <= 0 {
			return
		}
		if s.suspended.CompareAndSwap(n, n-1) {
			break
		}
	}
	s.signal()
}

// Suspended reports whether the worker is held.
func (s *Scheduler) Suspended() bool {
	return s.suspended.Load() > 0
}

// IsScheduled reports whether id is waiting to run.
func (s *Scheduler) IsScheduled(id jobs.ID) bool {
	s.mu.Lock()
	job, ok := s.active[id]
	s.mu.Unlock()
	return ok && job.Status() == jobs.StatusScheduled
}

// Job returns a scheduled or running job by id.
func (s *Scheduler) Job(id jobs.ID) (*jobs.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.active[id]
	return job, ok
}

// Current returns the running job, or nil.
func (s *Scheduler) Current() *jobs.Job {
	return s.current.Load()
}

// Len returns the number of waiting jobs, delayed ones included.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	delayed := len(s.delayed)
	s.mu.Unlock()
	return s.queue.Len() + delayed
}

// Pending returns the waiting jobs in the order they will run, followed by
// delayed jobs ordered by RunAt.
func (s *Scheduler) Pending() []*jobs.Job {
	out := s.queue.Snapshot()

	s.mu.Lock()
	delayed := make([]*jobs.Job, 0, len(s.delayed))
	for id := range s.delayed {
		delayed = append(delayed, s.active[id])
	}
	s.mu.Unlock()

	sort.Slice(delayed, func(i, j int) bool {
		return delayed[i].RunAt().Before(delayed[j].RunAt())
	})
	return append(out, delayed...)
}

// Err returns the first infrastructure error hit by the worker.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infraErr
}

// Shutdown stops accepting jobs and waits for the running job to return.
// If ctx expires first, the running job's context is cancelled and ctx.Err()
// is returned. Waiting jobs stay Scheduled; persisted ones come back on the
// next Start.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	s.stop()
	if !started {
		s.doneOnce.Do(func() { close(s.done) })
	}

	select {
	case <-s.done:
		s.baseCancel()
		log.Info("worker stopped")
		return s.Err()
	case <-ctx.Done():
		s.baseCancel()
		log.Warn("shutdown deadline hit, cancelled running job")
		return errors.Join(ctx.Err(), s.Err())
	}
}

func (s *Scheduler) stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for id, t := range s.delayed {
			t.Stop()
			delete(s.delayed, id)
		}
		s.mu.Unlock()
		close(s.quit)
	})
}

func (s *Scheduler) loop() {
	defer s.doneOnce.Do(func() { close(s.done) })

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		if s.Suspended() {
			if !s.wait() {
				return
			}
			continue
		}

		job, ok := s.queue.Dequeue()
		if !ok {
			if !s.wait() {
				return
			}
			continue
		}
		s.execute(job)
	}
}

// wait blocks until the worker is signalled or the scheduler stops.
func (s *Scheduler) wait() bool {
	select {
	case <-s.wake:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Scheduler) execute(job *jobs.Job) {
	id := job.ID()
	ctx, err := job.MarkRunning(s.baseCtx)
	if err != nil {
		// Cancelled between Dequeue and here; Cancel already cleaned up.
		log.Debug("skipping job %d: %v", id, err)
		return
	}

	s.current.Store(job)
	log.Debug("job %d (%s) started", id, job.Type())
	s.emit(Event{Kind: EventStarted, Job: job, Status: jobs.StatusRunning})

	var runErr error
	if err := s.invoke(ctx, job); err != nil {
		runErr = &jobs.ExecutionError{JobID: id, Type: job.Type(), Err: err}
	}
	status, _ := job.Finish(runErr)
	s.current.Store(nil)

	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()

	// A terminal job is done with its record either way. Only jobs that never
	// reached a terminal state come back on the next Start.
	s.dropRecord(job)

	if status == jobs.StatusFinished {
		log.Debug("job %d (%s) finished in %v", id, job.Type(), job.Duration())
		s.emit(Event{Kind: EventFinished, Job: job, Status: status})
		return
	}

	log.Warn("%v", runErr)
	s.emit(Event{Kind: EventFailed, Job: job, Status: status, Err: runErr})
}

// invoke runs the body, turning a panic into an error.
func (s *Scheduler) invoke(ctx context.Context, job *jobs.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("job %d (%s) panicked: %v\n%s", job.ID(), job.Type(), r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job.Run(ctx)
}

// dropRecord deletes the persisted record of a job, if it has one.
func (s *Scheduler) dropRecord(job *jobs.Job) {
	if s.store == nil || !job.Persistent() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, job.RecordID()); err != nil {
		perr := &jobs.PersistenceError{Op: "delete", Err: err}
		log.Error("job %d: %v", job.ID(), perr)
		s.mu.Lock()
		if s.infraErr == nil {
			s.infraErr = perr
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Pending = s.Len()

	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		s.notify(l, e)
	}
}

func (s *Scheduler) notify(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("listener panicked on %s event: %v", e.Kind, r)
		}
	}()
	l.HandleEvent(e)
}
