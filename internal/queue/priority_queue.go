package queue

import (
	"container/heap"
	"sync"

	"photo-jobs/internal/jobs"
)

// Entry is a queued job with the priority it is ordered by and the sequence
// number it was enqueued with.
type Entry struct {
	Job      *jobs.Job
	Priority jobs.Priority
	Seq      uint64
	index    int
}

// entryHeap orders by priority descending, then sequence ascending.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority == h[j].Priority {
		return h[i].Seq < h[j].Seq
	}
	return h[i].Priority > h[j].Priority
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// PriorityQueue holds jobs that have not been handed to the worker yet.
// All methods are safe for concurrent use; the lock is only held for the
// structural change itself.
type PriorityQueue struct {
	mu   sync.Mutex
	heap entryHeap
	byID map[jobs.ID]*Entry
	seq  uint64
}

// New creates an empty queue.
func New() *PriorityQueue {
	return &PriorityQueue{byID: make(map[jobs.ID]*Entry)}
}

// Enqueue inserts job at its current priority and returns the sequence number
// it was given. A job whose id is already queued is left in place and its
// existing sequence number is returned.
func (q *PriorityQueue) Enqueue(job *jobs.Job) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := job.ID()
	if e, ok := q.byID[id]; ok {
		return e.Seq
	}

	q.seq++
	e := &Entry{Job: job, Priority: job.Priority(), Seq: q.seq}
	heap.Push(&q.heap, e)
	q.byID[id] = e
	return e.Seq
}

// Dequeue removes and returns the head of the queue. ok is false when the
// queue is empty.
func (q *PriorityQueue) Dequeue() (job *jobs.Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.heap.Len() == 0 {
		return nil, false
	}
	e := heap.Pop(&q.heap).(*Entry)
	delete(q.byID, e.Job.ID())
	return e.Job, true
}

// Peek returns the head without removing it.
func (q *PriorityQueue) Peek() (job *jobs.Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.heap.Len() == 0 {
		return nil, false
	}
	return q.heap[0].Job, true
}

// Remove takes a queued job out of the queue. It returns false if the id is
// not queued, for instance because the worker already dequeued it.
func (q *PriorityQueue) Remove(id jobs.ID) (*jobs.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byID[id]
	if !ok {
		return nil, false
	}
	heap.Remove(&q.heap, e.index)
	delete(q.byID, id)
	return e.Job, true
}

// Reprioritize moves a queued job to a new priority. The job keeps its
// original sequence number, so among jobs of the new priority it is ordered
// by when it was first enqueued.
func (q *PriorityQueue) Reprioritize(id jobs.ID, p jobs.Priority) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.byID[id]
	if !ok {
		return false
	}
	if err := e.Job.SetPriority(p); err != nil {
		return false
	}
	e.Priority = p
	heap.Fix(&q.heap, e.index)
	return true
}

// Contains reports whether id is queued.
func (q *PriorityQueue) Contains(id jobs.ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[id]
	return ok
}

// Len returns the number of queued jobs.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Snapshot returns the queued jobs in dequeue order.
func (q *PriorityQueue) Snapshot() []*jobs.Job {
	q.mu.Lock()
	entries := make(entryHeap, len(q.heap))
	for i, e := range q.heap {
		c := *e
		entries[i] = &c
	}
	q.mu.Unlock()

	out := make([]*jobs.Job, 0, len(entries))
	for entries.Len() > 0 {
		out = append(out, heap.Pop(&entries).(*Entry).Job)
	}
	return out
}
