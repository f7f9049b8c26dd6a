// Package queue provides the priority queue of jobs waiting for the scheduler
// worker.
//
// Jobs are ordered by priority, highest first, and by submission order
// within a priority. The queue never blocks: Dequeue on an empty queue
// returns ok == false and the caller decides how to wait.
package queue
