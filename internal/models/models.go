package models

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle states shared by jobs and the image rows that mirror them.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Image struct {
	ID            uuid.UUID  `db:"id"`
	OriginalKey   string     `db:"original_key"`
	ProcessedKey  *string    `db:"processed_key"`
	IsWatermarked bool       `db:"is_watermarked"`
	JobID         *uuid.UUID `db:"job_id"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
}

// Job is the unit of queued work. Everything the worker needs travels in
// the payload; it never re-queries catalog data mid-job.
type Job struct {
	ID          uuid.UUID `json:"job_id"`
	ImageID     uuid.UUID `json:"image_id"`
	OriginalKey string    `json:"original_key"`
	HumanLabel  string    `json:"human_label,omitempty"`
	Attempt     int       `json:"attempt"`
}

type JobStatus struct {
	JobID      uuid.UUID  `db:"job_id"`
	ImageID    uuid.UUID  `db:"image_id"`
	Status     string     `db:"status"`
	Progress   int        `db:"progress"`
	Attempt    int        `db:"attempt"`
	StartedAt  *time.Time `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
}
