// Package runlog journals ingestion runs so users can audit what an
// utterance turned into.
package runlog

import "time"

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded ingestion run.
type Run struct {
	ID           string
	UserID       int64
	Utterance    string
	Events       int
	Committed    int
	DefaultsUsed int
	Suggestions  int
	Status       Status
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// CreateParams carries the fields recorded when a run finishes.
type CreateParams struct {
	ID           string
	UserID       int64
	Utterance    string
	Events       int
	Committed    int
	DefaultsUsed int
	Suggestions  int
	Status       Status
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}
