package domain

import "time"

// JobStatus enumerates generation job lifecycle states. The only valid
// transitions are pending -> generating -> complete|failed; terminal states
// admit no further transitions.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusGenerating JobStatus = "generating"
	JobStatusComplete   JobStatus = "complete"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// JobState is the pollable snapshot of one generation job. Progress is
// monotonically non-decreasing within a job and frozen at its last reported
// value on failure.
type JobState struct {
	JobID     string        `json:"job_id"`
	Status    JobStatus     `json:"status"`
	Progress  int           `json:"progress"`
	Message   string        `json:"message"`
	Result    *BookResponse `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
