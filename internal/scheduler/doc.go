/*
Package scheduler runs background photo maintenance jobs on a single worker.

# Model

A Scheduler owns one worker goroutine. Callers on any goroutine hand it jobs
with Schedule (or Submit, which builds and optionally persists the job
first). The worker takes the highest priority job from the queue, marks it
Running, invokes its body and records the outcome. Exactly one job body runs
at a time: job bodies share the photo database and are not written to run
concurrently with each other.

When the queue is empty, or while the scheduler is suspended, the worker
blocks on a channel; Schedule and Resume wake it.

# Ordering

Jobs run by priority, highest first. Jobs of equal priority run in the order
they were scheduled. A job that is already running is never preempted.

# Cancellation

Cancel on a waiting job removes it; it never starts and no Started event
fires. Cancel on a running job cancels the context passed to its body and
returns immediately. Bodies are expected to check ctx at safe points.

# Failures

An error or panic from a job body is caught by the worker, wrapped in
*jobs.ExecutionError, recorded on the job and reported with an EventFailed.
The worker then moves on. Jobs are never retried automatically.

Store failures are infrastructure failures: Start returns them, and failures
seen by the worker are kept and reported by Err and Shutdown.

# Persistence

With a Store, persistent jobs are inserted on Submit and deleted once they
finish, fail or are cancelled. Jobs still waiting or running when the
process stops keep their record and are rebuilt through the Registry on the
next Start.

# Events

Listeners receive Scheduled, Unscheduled, Started, Finished and Failed
events, each fired once per job with the status the job had at that moment:

	sched := scheduler.New(
		scheduler.WithStore(db.Jobs()),
		scheduler.WithRegistry(registry),
		scheduler.WithListener(metrics.NewSchedulerObserver()),
	)
	if err := sched.Start(ctx); err != nil {
		// pending jobs could not be loaded
	}
	defer sched.Shutdown(ctx)
*/
package scheduler
