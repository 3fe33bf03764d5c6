package cron

import (
	"context"
	"time"
)

// Func is the body of a maintenance job.
type Func func(ctx context.Context) error

// Job is a named maintenance task run on a cron schedule.
type Job struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Runs      int        `json:"runs"`

	run Func
}

// Clone returns a copy without the run func.
func (j *Job) Clone() *Job {
	clone := &Job{
		Name:      j.Name,
		Schedule:  j.Schedule,
		LastError: j.LastError,
		Runs:      j.Runs,
	}
	if j.LastRun != nil {
		lastRun := *j.LastRun
		clone.LastRun = &lastRun
	}
	return clone
}
