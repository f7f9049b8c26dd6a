package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"strings"
	"sync"
	"testing"
	"time"

	"photo-jobs/internal/jobs"
	"photo-jobs/internal/logging"
)

const testTimeout = 5 * time.Second

// recorder collects events and signals every terminal one.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	terminal chan Event
	started  chan jobs.ID
}

func newRecorder() *recorder {
	return &recorder{
		terminal: make(chan Event, 256),
		started:  make(chan jobs.ID, 256),
	}
}

func (r *recorder) HandleEvent(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	switch e.Kind {
	case EventStarted:
		r.started <- e.Job.ID()
	case EventFinished, EventFailed:
		r.terminal <- e
	}
}

// waitTerminal blocks until n jobs finished or failed.
func (r *recorder) waitTerminal(t *testing.T, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	timeout := time.After(testTimeout)
	for len(out) < n {
		select {
		case e := <-r.terminal:
			out = append(out, e)
		case <-timeout:
			t.Fatalf("timed out after %d of %d terminal events", len(out), n)
		}
	}
	return out
}

func (r *recorder) waitStarted(t *testing.T) jobs.ID {
	t.Helper()
	select {
	case id := <-r.started:
		return id
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a job to start")
		return 0
	}
}

func (r *recorder) kinds(id jobs.ID) []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventKind
	for _, e := range r.events {
		if e.Job.ID() == id {
			out = append(out, e.Kind)
		}
	}
	return out
}

func (r *recorder) startOrder() []jobs.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []jobs.ID
	for _, e := range r.events {
		if e.Kind == EventStarted {
			out = append(out, e.Job.ID())
		}
	}
	return out
}

func noop(context.Context) error { return nil }

func newJob(p jobs.Priority, fn jobs.RunnerFunc) *jobs.Job {
	return jobs.New("test", "", fn, jobs.WithPriority(p))
}

func shutdown(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func mustSchedule(t *testing.T, s *Scheduler, j *jobs.Job) jobs.ID {
	t.Helper()
	id, err := s.Schedule(j)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	return id
}

func mustStart(t *testing.T, s *Scheduler) {
	t.Helper()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestExecutionOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		priorities []jobs.Priority
		want       []jobs.ID
	}{
		{
			name:       "lowest highest normal runs highest normal lowest",
			priorities: []jobs.Priority{jobs.PriorityLowest, jobs.PriorityHighest, jobs.PriorityNormal},
			want:       []jobs.ID{2, 3, 1},
		},
		{
			name:       "equal priority runs in submission order",
			priorities: []jobs.Priority{jobs.PriorityNormal, jobs.PriorityNormal},
			want:       []jobs.ID{1, 2},
		},
		{
			name: "stable within each priority",
			priorities: []jobs.Priority{
				jobs.PriorityLow, jobs.PriorityHigh, jobs.PriorityLow, jobs.PriorityHigh,
			},
			want: []jobs.ID{2, 4, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newRecorder()
			s := New(WithListener(rec))
			for _, p := range tt.priorities {
				mustSchedule(t, s, newJob(p, noop))
			}
			mustStart(t, s)
			rec.waitTerminal(t, len(tt.priorities))
			shutdown(t, s)

			got := rec.startOrder()
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("start order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHigherPriorityDoesNotPreempt(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	mustStart(t, s)

	release := make(chan struct{})
	first := mustSchedule(t, s, newJob(jobs.PriorityLowest, func(context.Context) error {
		<-release
		return nil
	}))
	if got := rec.waitStarted(t); got != first {
		t.Fatalf("first started job = %d, want %d", got, first)
	}

	low := mustSchedule(t, s, newJob(jobs.PriorityLow, noop))
	high := mustSchedule(t, s, newJob(jobs.PriorityHighest, noop))
	if cur := s.Current(); cur == nil || cur.ID() != first {
		t.Errorf("Current() = %v, want job %d", cur, first)
	}
	close(release)

	rec.waitTerminal(t, 3)
	shutdown(t, s)

	want := []jobs.ID{first, high, low}
	if got := rec.startOrder(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("start order = %v, want %v", got, want)
	}
}

func TestScheduleRejectsNonCreatedJob(t *testing.T) {
	t.Parallel()

	s := New()
	j := newJob(jobs.PriorityNormal, noop)
	mustSchedule(t, s, j)

	if _, err := s.Schedule(j); !errors.Is(err, jobs.ErrInvalidState) {
		t.Errorf("second Schedule() error = %v, want ErrInvalidState", err)
	}
	shutdown(t, s)

	if _, err := s.Schedule(newJob(jobs.PriorityNormal, noop)); !errors.Is(err, ErrClosed) {
		t.Errorf("Schedule() after Shutdown error = %v, want ErrClosed", err)
	}
}

func TestCancelScheduledJobNeverStarts(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))

	var ran sync.Map
	ids := make([]jobs.ID, 3)
	for i := range ids {
		i := i
		ids[i] = mustSchedule(t, s, newJob(jobs.PriorityNormal, func(context.Context) error {
			ran.Store(i, true)
			return nil
		}))
	}

	if err := s.Cancel(ids[1]); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if s.IsScheduled(ids[1]) {
		t.Error("cancelled job still reported as scheduled")
	}
	if err := s.Cancel(ids[1]); !errors.Is(err, jobs.ErrInvalidState) {
		t.Errorf("second Cancel() error = %v, want ErrInvalidState", err)
	}

	mustStart(t, s)
	rec.waitTerminal(t, 2)
	shutdown(t, s)

	if _, ok := ran.Load(1); ok {
		t.Error("cancelled job body ran")
	}
	got := rec.kinds(ids[1])
	if len(got) != 2 || got[0] != EventScheduled || got[1] != EventUnscheduled {
		t.Errorf("events for cancelled job = %v, want [scheduled unscheduled]", got)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	t.Parallel()

	s := New()
	defer shutdown(t, s)
	if err := s.Cancel(42); !errors.Is(err, jobs.ErrInvalidState) {
		t.Errorf("Cancel(42) error = %v, want ErrInvalidState", err)
	}
	if err := s.Reprioritize(context.Background(), 42, jobs.PriorityHigh); !errors.Is(err, jobs.ErrInvalidState) {
		t.Errorf("Reprioritize(42) error = %v, want ErrInvalidState", err)
	}
}

// cooperativeJob runs until its context is cancelled and counts invocations.
type cooperativeJob struct {
	mu    sync.Mutex
	calls int
}

func (c *cooperativeJob) Run(ctx context.Context) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func TestCancelRunningJobIsCooperative(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	mustStart(t, s)

	body := &cooperativeJob{}
	j := jobs.New("test", "", body)
	id := mustSchedule(t, s, j)
	next := mustSchedule(t, s, newJob(jobs.PriorityNormal, noop))

	rec.waitStarted(t)
	if err := s.Cancel(id); err != nil {
		t.Fatalf("Cancel() on running job error = %v", err)
	}

	events := rec.waitTerminal(t, 2)
	shutdown(t, s)

	if events[0].Kind != EventFailed || events[0].Job.ID() != id {
		t.Errorf("first terminal event = %v for job %d, want failed for %d", events[0].Kind, events[0].Job.ID(), id)
	}
	if !errors.Is(j.Err(), context.Canceled) {
		t.Errorf("job error = %v, want context.Canceled", j.Err())
	}
	if events[1].Kind != EventFinished || events[1].Job.ID() != next {
		t.Errorf("second terminal event = %v for job %d", events[1].Kind, events[1].Job.ID())
	}

	body.mu.Lock()
	defer body.mu.Unlock()
	if body.calls != 1 {
		t.Errorf("job body invoked %d times, want 1", body.calls)
	}
}

func TestFailingJobsDoNotStopWorker(t *testing.T) {
	t.Parallel()

	const n = 6
	rec := newRecorder()
	s := New(WithListener(rec))

	all := make([]*jobs.Job, n)
	for k := 0; k < n; k++ {
		k := k
		all[k] = newJob(jobs.PriorityNormal, func(context.Context) error {
			switch k {
			case 1:
				return errors.New("disk on fire")
			case 3:
				panic("nil map write")
			}
			return nil
		})
		mustSchedule(t, s, all[k])
	}
	mustStart(t, s)
	rec.waitTerminal(t, n)
	shutdown(t, s)

	for k, j := range all {
		want := jobs.StatusFinished
		if k == 1 || k == 3 {
			want = jobs.StatusFailed
		}
		if j.Status() != want {
			t.Errorf("job %d status = %v, want %v", k, j.Status(), want)
		}
	}

	var execErr *jobs.ExecutionError
	if !errors.As(all[3].Err(), &execErr) {
		t.Fatalf("panicking job error = %v, want *ExecutionError", all[3].Err())
	}
	if execErr.JobID != all[3].ID() || execErr.Type != "test" {
		t.Errorf("ExecutionError = %+v", execErr)
	}
}

func TestEventsFireOnceWithStatus(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	ok := mustSchedule(t, s, newJob(jobs.PriorityNormal, noop))
	bad := mustSchedule(t, s, newJob(jobs.PriorityNormal, func(context.Context) error {
		return errors.New("boom")
	}))
	mustStart(t, s)
	rec.waitTerminal(t, 2)
	shutdown(t, s)

	want := map[jobs.ID][]EventKind{
		ok:  {EventScheduled, EventStarted, EventFinished},
		bad: {EventScheduled, EventStarted, EventFailed},
	}
	for id, kinds := range want {
		if got := rec.kinds(id); fmt.Sprint(got) != fmt.Sprint(kinds) {
			t.Errorf("job %d events = %v, want %v", id, got, kinds)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, e := range rec.events {
		var want jobs.Status
		switch e.Kind {
		case EventScheduled:
			want = jobs.StatusScheduled
		case EventStarted:
			want = jobs.StatusRunning
		case EventFinished:
			want = jobs.StatusFinished
		case EventFailed:
			want = jobs.StatusFailed
			if e.Err == nil {
				t.Error("failed event without error")
			}
		}
		if e.Status != want {
			t.Errorf("%s event status = %v, want %v", e.Kind, e.Status, want)
		}
	}
}

func TestPanickingListenerIsContained(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(
		WithListener(ListenerFunc(func(Event) { panic("listener bug") })),
		WithListener(rec),
	)
	mustSchedule(t, s, newJob(jobs.PriorityNormal, noop))
	mustStart(t, s)
	rec.waitTerminal(t, 1)
	shutdown(t, s)
}

func TestReprioritizeQueuedJob(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	a := mustSchedule(t, s, newJob(jobs.PriorityNormal, noop))
	b := mustSchedule(t, s, newJob(jobs.PriorityNormal, noop))
	c := mustSchedule(t, s, newJob(jobs.PriorityLow, noop))

	if err := s.Reprioritize(context.Background(), c, jobs.PriorityHighest); err != nil {
		t.Fatalf("Reprioritize() error = %v", err)
	}
	if err := s.Reprioritize(context.Background(), a, jobs.Priority(9)); !errors.Is(err, jobs.ErrInvalidState) {
		t.Errorf("Reprioritize() with bad priority error = %v", err)
	}

	pending := s.Pending()
	if len(pending) != 3 || pending[0].ID() != c {
		t.Errorf("Pending() head = %v, want job %d", pending, c)
	}

	mustStart(t, s)
	rec.waitTerminal(t, 3)
	shutdown(t, s)

	want := []jobs.ID{c, a, b}
	if got := rec.startOrder(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("start order = %v, want %v", got, want)
	}
}

func TestSuspendHoldsWorker(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	mustStart(t, s)

	s.Suspend()
	s.Suspend()
	id := mustSchedule(t, s, newJob(jobs.PriorityNormal, noop))

	s.Resume()
	select {
	case <-rec.started:
		t.Fatal("job started while still suspended")
	case <-time.After(20 * time.Millisecond):
	}
	if !s.IsScheduled(id) || s.Len() != 1 {
		t.Errorf("IsScheduled = %v, Len = %d", s.IsScheduled(id), s.Len())
	}

	s.Resume()
	rec.waitTerminal(t, 1)
	shutdown(t, s)
}

func TestUnscheduleType(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	for i := 0; i < 3; i++ {
		mustSchedule(t, s, jobs.New("hash", "", jobs.RunnerFunc(noop)))
	}
	keep := mustSchedule(t, s, jobs.New("thumbnail", "", jobs.RunnerFunc(noop)))

	if n := s.UnscheduleType("hash"); n != 3 {
		t.Errorf("UnscheduleType() = %d, want 3", n)
	}
	if s.Len() != 1 || !s.IsScheduled(keep) {
		t.Errorf("Len() = %d after unscheduling, want 1", s.Len())
	}

	mustStart(t, s)
	rec.waitTerminal(t, 1)
	shutdown(t, s)
}

func TestDelayedJob(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	mustStart(t, s)

	j := jobs.New("test", "", jobs.RunnerFunc(noop), jobs.WithRunAt(time.Now().Add(50*time.Millisecond)))
	id := mustSchedule(t, s, j)
	now := mustSchedule(t, s, newJob(jobs.PriorityLowest, noop))

	if !s.IsScheduled(id) {
		t.Error("delayed job should be scheduled")
	}
	events := rec.waitTerminal(t, 2)
	shutdown(t, s)

	if events[0].Job.ID() != now || events[1].Job.ID() != id {
		t.Errorf("terminal order = [%d %d], want [%d %d]", events[0].Job.ID(), events[1].Job.ID(), now, id)
	}
	if j.Snapshot().StartedAt.Before(j.RunAt()) {
		t.Error("delayed job started before its RunAt")
	}
}

func TestCancelDelayedJob(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	mustStart(t, s)

	id := mustSchedule(t, s, jobs.New("test", "", jobs.RunnerFunc(noop), jobs.WithRunAt(time.Now().Add(time.Hour))))
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if err := s.Cancel(id); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after cancel, want 0", s.Len())
	}
	shutdown(t, s)
}

func TestShutdownDeadlineCancelsRunningJob(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := New(WithListener(rec))
	mustStart(t, s)

	body := &cooperativeJob{}
	j := jobs.New("test", "", body)
	mustSchedule(t, s, j)
	rec.waitStarted(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want DeadlineExceeded", err)
	}

	rec.waitTerminal(t, 1)
	if j.Status() != jobs.StatusFailed {
		t.Errorf("running job status after shutdown = %v, want failed", j.Status())
	}
}

// memStore is an in-memory Store.
type memStore struct {
	mu         sync.Mutex
	next       int64
	records    map[int64]jobs.Record
	loadErr    error
	priorities map[int64]jobs.Priority
}

func newMemStore(recs ...jobs.Record) *memStore {
	m := &memStore{records: make(map[int64]jobs.Record), priorities: make(map[int64]jobs.Priority)}
	for _, r := range recs {
		m.next++
		r.ID = m.next
		m.records[r.ID] = r
	}
	return m
}

func (m *memStore) Insert(_ context.Context, rec jobs.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	rec.ID = m.next
	m.records[rec.ID] = rec
	return rec.ID, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memStore) AllPending(context.Context) ([]jobs.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]jobs.Record, 0, len(m.records))
	for id := int64(1); id <= m.next; id++ {
		if r, ok := m.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePriority(_ context.Context, id int64, p jobs.Priority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorities[id] = p
	return nil
}

func (m *memStore) has(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok
}

func testRegistry(ran chan<- string) *jobs.Registry {
	reg := jobs.NewRegistry()
	reg.Register("ok", func(opts string) (jobs.Runner, error) {
		return jobs.RunnerFunc(func(context.Context) error {
			ran <- opts
			return nil
		}), nil
	})
	reg.Register("fail", func(string) (jobs.Runner, error) {
		return jobs.RunnerFunc(func(context.Context) error {
			return errors.New("always fails")
		}), nil
	})
	return reg
}

func TestStartRecoversPendingJobs(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		jobs.Record{Type: "ok", Options: "1", Priority: jobs.PriorityLow},
		jobs.Record{Type: "gone", Options: "2"},
		jobs.Record{Type: "ok", Options: "3", Priority: jobs.PriorityHigh},
	)
	ran := make(chan string, 8)
	rec := newRecorder()
	s := New(WithStore(store), WithRegistry(testRegistry(ran)), WithListener(rec))
	mustStart(t, s)
	rec.waitTerminal(t, 2)
	shutdown(t, s)

	if first, second := <-ran, <-ran; first != "3" || second != "1" {
		t.Errorf("recovered jobs ran as %s, %s; want 3, 1", first, second)
	}
	if store.has(1) || store.has(3) {
		t.Error("finished job records were not deleted")
	}
	if !store.has(2) {
		t.Error("record of unknown type should be left in the store")
	}
	if got := s.Recovered(); got != 2 {
		t.Errorf("Recovered() = %d, want 2", got)
	}
}

func TestStartWithoutRecovery(t *testing.T) {
	t.Parallel()

	store := newMemStore(jobs.Record{Type: "ok", Options: "1"})
	ran := make(chan string, 1)
	s := New(WithStore(store), WithRegistry(testRegistry(ran)), WithoutRecovery())
	mustStart(t, s)
	shutdown(t, s)

	if s.Recovered() != 0 || len(ran) != 0 {
		t.Errorf("stored job was recovered: Recovered() = %d, ran %d", s.Recovered(), len(ran))
	}
	if !store.has(1) {
		t.Error("stored record should be left for a later start")
	}
}

func TestStartPersistenceError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.loadErr = errors.New("database is locked")
	s := New(WithStore(store), WithRegistry(jobs.NewRegistry()))

	err := s.Start(context.Background())
	var perr *jobs.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Start() error = %v, want *PersistenceError", err)
	}
	if _, err := s.Schedule(newJob(jobs.PriorityNormal, noop)); !errors.Is(err, ErrClosed) {
		t.Errorf("Schedule() after failed Start error = %v, want ErrClosed", err)
	}
	shutdown(t, s)
}

func TestSubmitPersistence(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ran := make(chan string, 8)
	rec := newRecorder()
	s := New(WithStore(store), WithRegistry(testRegistry(ran)), WithListener(rec))

	ctx := context.Background()
	okJob, err := s.Submit(ctx, Request{Type: "ok", Options: "7", Priority: jobs.PriorityNormal, Persistent: true})
	if err != nil {
		t.Fatalf("Submit(ok) error = %v", err)
	}
	failJob, err := s.Submit(ctx, Request{Type: "fail", Priority: jobs.PriorityNormal, Persistent: true})
	if err != nil {
		t.Fatalf("Submit(fail) error = %v", err)
	}
	if _, err := s.Submit(ctx, Request{Type: "nope"}); !errors.Is(err, jobs.ErrUnknownJobType) {
		t.Errorf("Submit(nope) error = %v, want ErrUnknownJobType", err)
	}

	if err := s.Reprioritize(ctx, failJob.ID(), jobs.PriorityHigh); err != nil {
		t.Fatalf("Reprioritize() error = %v", err)
	}
	store.mu.Lock()
	if p := store.priorities[failJob.RecordID()]; p != jobs.PriorityHigh {
		t.Errorf("stored priority = %v, want high", p)
	}
	store.mu.Unlock()

	mustStart(t, s)
	rec.waitTerminal(t, 2)
	shutdown(t, s)

	if store.has(okJob.RecordID()) {
		t.Error("finished job record was not deleted")
	}
	if store.has(failJob.RecordID()) {
		t.Error("failed job record was not deleted")
	}
}

func TestFailedJobIsNotRecoveredAgain(t *testing.T) {
	t.Parallel()

	store := newMemStore(jobs.Record{Type: "fail", Options: "1"})
	reg := testRegistry(make(chan string, 1))

	for restart, want := range []int{1, 0, 0} {
		rec := newRecorder()
		s := New(WithStore(store), WithRegistry(reg), WithListener(rec))
		mustStart(t, s)
		if want > 0 {
			if e := rec.waitTerminal(t, 1)[0]; e.Kind != EventFailed {
				t.Errorf("start %d: event = %v, want failed", restart, e.Kind)
			}
		}
		shutdown(t, s)

		if got := s.Recovered(); got != want {
			t.Errorf("start %d: Recovered() = %d, want %d", restart, got, want)
		}
		if store.has(1) {
			t.Errorf("start %d: failed job record still stored", restart)
		}
	}
}

func TestCancelRunningPersistentJobDropsRecord(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	reg := jobs.NewRegistry()
	reg.Register("wait", func(string) (jobs.Runner, error) {
		return &cooperativeJob{}, nil
	})
	rec := newRecorder()
	s := New(WithStore(store), WithRegistry(reg), WithListener(rec))
	mustStart(t, s)

	j, err := s.Submit(context.Background(), Request{Type: "wait", Priority: jobs.PriorityNormal, Persistent: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	rec.waitStarted(t)
	if err := s.Cancel(j.ID()); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	rec.waitTerminal(t, 1)
	shutdown(t, s)

	if !errors.Is(j.Err(), context.Canceled) {
		t.Errorf("job error = %v, want context.Canceled", j.Err())
	}
	if store.has(j.RecordID()) {
		t.Error("cancelled job record was not deleted")
	}
}

func TestSubmitWithoutStore(t *testing.T) {
	t.Parallel()

	s := New(WithRegistry(testRegistry(make(chan string, 1))))
	defer shutdown(t, s)
	if _, err := s.Submit(context.Background(), Request{Type: "ok", Persistent: true}); !errors.Is(err, ErrNoStore) {
		t.Errorf("Submit() error = %v, want ErrNoStore", err)
	}
}

func TestFailedJobLogLine(t *testing.T) {
	if logging.GetLevel() > logging.LevelWarn {
		t.Skip("warnings are not logged at this level")
	}
	var buf bytes.Buffer
	orig := stdlog.Writer()
	stdlog.SetOutput(&buf)
	defer stdlog.SetOutput(orig)

	rec := newRecorder()
	s := New(WithRegistry(testRegistry(make(chan string, 1))), WithListener(rec))
	mustStart(t, s)
	j, err := s.Submit(context.Background(), Request{Type: "fail", Priority: jobs.PriorityNormal})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	rec.waitTerminal(t, 1)
	shutdown(t, s)

	out := buf.String()
	want := fmt.Sprintf("scheduler: job %d (fail) failed: always fails", j.ID())
	if strings.Count(out, "failed") != 1 || !strings.Contains(out, want) {
		t.Errorf("log output = %q, want one line containing %q", out, want)
	}
}
