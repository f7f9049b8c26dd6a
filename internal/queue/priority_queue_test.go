package queue

import (
	"context"
	"sync"
	"testing"

	"photo-jobs/internal/jobs"
)

func newJob(t *testing.T, id jobs.ID, p jobs.Priority) *jobs.Job {
	t.Helper()
	j := jobs.New("test", "", jobs.RunnerFunc(func(context.Context) error { return nil }), jobs.WithPriority(p))
	if err := j.MarkScheduled(id); err != nil {
		t.Fatalf("MarkScheduled(%d): %v", id, err)
	}
	return j
}

func drain(q *PriorityQueue) []jobs.ID {
	var ids []jobs.ID
	for {
		j, ok := q.Dequeue()
		if !ok {
			return ids
		}
		ids = append(ids, j.ID())
	}
}

func equalIDs(a, b []jobs.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDequeueOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		priorities []jobs.Priority
		want       []jobs.ID
	}{
		{
			name:       "lowest highest normal",
			priorities: []jobs.Priority{jobs.PriorityLowest, jobs.PriorityHighest, jobs.PriorityNormal},
			want:       []jobs.ID{2, 3, 1},
		},
		{
			name:       "equal priority is fifo",
			priorities: []jobs.Priority{jobs.PriorityNormal, jobs.PriorityNormal},
			want:       []jobs.ID{1, 2},
		},
		{
			name: "mixed with ties",
			priorities: []jobs.Priority{
				jobs.PriorityLow, jobs.PriorityHigh, jobs.PriorityLow,
				jobs.PriorityHigh, jobs.PriorityNormal, jobs.PriorityLow,
			},
			want: []jobs.ID{2, 4, 5, 1, 3, 6},
		},
		{
			name:       "empty",
			priorities: nil,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := New()
			for i, p := range tt.priorities {
				q.Enqueue(newJob(t, jobs.ID(i+1), p))
			}
			if got := drain(q); !equalIDs(got, tt.want) {
				t.Errorf("dequeue order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDequeueEmpty(t *testing.T) {
	t.Parallel()

	q := New()
	if j, ok := q.Dequeue(); ok || j != nil {
		t.Errorf("Dequeue on empty queue = (%v, %v)", j, ok)
	}
	if _, ok := q.Peek(); ok {
		t.Error("Peek on empty queue should report !ok")
	}
}

func TestEnqueueAssignsIncreasingSequence(t *testing.T) {
	t.Parallel()

	q := New()
	a := q.Enqueue(newJob(t, 1, jobs.PriorityNormal))
	b := q.Enqueue(newJob(t, 2, jobs.PriorityNormal))
	if b <= a {
		t.Errorf("sequence numbers not increasing: %d then %d", a, b)
	}

	dup := newJob(t, 1, jobs.PriorityHighest)
	if seq := q.Enqueue(dup); seq != a {
		t.Errorf("re-enqueueing a queued id returned seq %d, want %d", seq, a)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	q := New()
	for i := 1; i <= 4; i++ {
		q.Enqueue(newJob(t, jobs.ID(i), jobs.PriorityNormal))
	}

	j, ok := q.Remove(3)
	if !ok || j.ID() != 3 {
		t.Fatalf("Remove(3) = (%v, %v)", j, ok)
	}
	if q.Contains(3) {
		t.Error("removed job still reported as contained")
	}
	if _, ok := q.Remove(3); ok {
		t.Error("second Remove(3) should report false")
	}
	if _, ok := q.Remove(99); ok {
		t.Error("Remove of unknown id should report false")
	}

	if got := drain(q); !equalIDs(got, []jobs.ID{1, 2, 4}) {
		t.Errorf("remaining order = %v", got)
	}
}

func TestReprioritize(t *testing.T) {
	t.Parallel()

	q := New()
	q.Enqueue(newJob(t, 1, jobs.PriorityNormal))
	q.Enqueue(newJob(t, 2, jobs.PriorityHigh))
	q.Enqueue(newJob(t, 3, jobs.PriorityNormal))
	q.Enqueue(newJob(t, 4, jobs.PriorityHigh))

	// 3 joins the high jobs but keeps its original sequence number, so it
	// lands between 2 and 4.
	if !q.Reprioritize(3, jobs.PriorityHigh) {
		t.Fatal("Reprioritize(3) failed")
	}
	if q.Reprioritize(42, jobs.PriorityHigh) {
		t.Error("Reprioritize of unknown id should fail")
	}

	if got := drain(q); !equalIDs(got, []jobs.ID{2, 3, 4, 1}) {
		t.Errorf("order after reprioritize = %v, want [2 3 4 1]", got)
	}
}

func TestReprioritizeUpdatesJob(t *testing.T) {
	t.Parallel()

	q := New()
	j := newJob(t, 1, jobs.PriorityLowest)
	q.Enqueue(j)
	q.Reprioritize(1, jobs.PriorityHighest)
	if j.Priority() != jobs.PriorityHighest {
		t.Errorf("job priority = %v, want highest", j.Priority())
	}
}

func TestSnapshotDoesNotConsume(t *testing.T) {
	t.Parallel()

	q := New()
	q.Enqueue(newJob(t, 1, jobs.PriorityLow))
	q.Enqueue(newJob(t, 2, jobs.PriorityHighest))
	q.Enqueue(newJob(t, 3, jobs.PriorityNormal))

	snap := q.Snapshot()
	ids := make([]jobs.ID, len(snap))
	for i, j := range snap {
		ids[i] = j.ID()
	}
	if !equalIDs(ids, []jobs.ID{2, 3, 1}) {
		t.Errorf("Snapshot order = %v", ids)
	}
	if q.Len() != 3 {
		t.Errorf("Snapshot consumed the queue, Len() = %d", q.Len())
	}
	if head, _ := q.Peek(); head.ID() != 2 {
		t.Errorf("Peek() = %d, want 2", head.ID())
	}
}

func TestConcurrentEnqueueDequeue(t *testing.T) {
	t.Parallel()

	const producers = 8
	const perProducer = 100

	q := New()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				id := jobs.ID(p*perProducer + i + 1)
				j := jobs.New("test", "", nil, jobs.WithPriority(jobs.Priority(i%5)))
				_ = j.MarkScheduled(id)
				q.Enqueue(j)
			}
		}(p)
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Fatalf("Len() = %d, want %d", q.Len(), producers*perProducer)
	}

	last := jobs.PriorityHighest
	count := 0
	for {
		j, ok := q.Dequeue()
		if !ok {
			break
		}
		if j.Priority() > last {
			t.Fatalf("priority increased from %v to %v", last, j.Priority())
		}
		last = j.Priority()
		count++
	}
	if count != producers*perProducer {
		t.Errorf("dequeued %d jobs, want %d", count, producers*perProducer)
	}
}
