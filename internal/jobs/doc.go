// Package jobs defines the unit of background work run by the scheduler.
//
// A Job wraps a Runner (the body) with its type, serialized options,
// priority, optional start time and a lifecycle status:
//
//	Created -> Scheduled -> Running -> Finished
//	                     \          \-> Failed
//	                      \-> Failed (cancelled before it ran)
//
// Terminal states are never left. Retrying means building a new Job, usually
// from the persisted Record through a Registry.
//
// Cancellation is cooperative: a running body receives a context that is
// cancelled on request and is expected to check it at safe points.
package jobs
