package jobs

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies a scheduled job for the lifetime of the process.
type ID int64

// Priority orders pending jobs. Higher values run first.
type Priority int

const (
	// PriorityLowest is used for bulk maintenance work.
	PriorityLowest Priority = iota
	// PriorityLow is below the default.
	PriorityLow
	// PriorityNormal is the default priority.
	PriorityNormal
	// PriorityHigh is above the default.
	PriorityHigh
	// PriorityHighest is for work a user is waiting on.
	PriorityHighest
)

var priorityNames = []string{"lowest", "low", "normal", "high", "highest"}

// String returns the lower-case name of the priority.
func (p Priority) String() string {
	if p < PriorityLowest || p > PriorityHighest {
		return fmt.Sprintf("priority(%d)", int(p))
	}
	return priorityNames[p]
}

// Valid reports whether p is one of the five defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLowest && p <= PriorityHighest
}

// ParsePriority parses a priority name (case insensitive).
// The empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityNormal, nil
	}
	for i, name := range priorityNames {
		if name == s {
			return Priority(i), nil
		}
	}
	return PriorityNormal, fmt.Errorf("unknown priority %q", s)
}

// Status is the lifecycle state of a job.
type Status int

const (
	// StatusCreated is the state of a job nobody has scheduled yet.
	StatusCreated Status = iota
	// StatusScheduled means the job waits in the scheduler.
	StatusScheduled
	// StatusRunning means the worker is executing the job body.
	StatusRunning
	// StatusFinished means the body returned without error.
	StatusFinished
	// StatusFailed means the body failed, panicked, or the job was cancelled
	// before it started.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusScheduled:
		return "scheduled"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// Record is the persisted form of a job.
type Record struct {
	ID       int64     `json:"id"`
	Type     string    `json:"type"`
	Options  string    `json:"options"`
	RunAt    time.Time `json:"runAt"`
	Priority Priority  `json:"priority"`
}
