package model

import "time"

// JobStatus is the lifecycle of a long-running fan-out job.
type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

// FarmCheckpoint is the resumable cursor persisted when a farm job is
// paused. Its presence on disk signals "resumable state available".
type FarmCheckpoint struct {
	JobKind   string    `json:"job_kind"`
	NextIndex int       `json:"next_index"`
	SavedAt   time.Time `json:"saved_at"`
}

// FarmJobState is the externally visible state of one job kind.
type FarmJobState struct {
	Kind      string    `json:"kind"`
	Status    JobStatus `json:"status"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
}
