package models

import "time"

// RunResult summarizes the initial scheduled run.
type RunResult struct {
	RunID       string    `json:"run_id"`
	StartTask   string    `json:"start_task"`
	Order       []string  `json:"order"`
	Completed   []string  `json:"completed"`
	FailedTask  string    `json:"failed_task,omitempty"`
	Watched     []string  `json:"watched,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationSec float64   `json:"duration_sec"`
}

// Succeeded reports whether every task in the run order completed.
func (r *RunResult) Succeeded() bool {
	return r.FailedTask == "" && len(r.Completed) == len(r.Order)
}
