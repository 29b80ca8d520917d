package models

import (
	"time"
)

// Job represents a background job in the queue
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Progress    int                    `json:"progress"` // 0-100
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload"` // Input data
	Result      map[string]interface{} `json:"result"`  // Output data
	Error       string                 `json:"error,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at"`
	WorkerID    string                 `json:"worker_id,omitempty"`
}

// JobType represents the type of job
type JobType string

const (
	JobTypeDocumentIngest JobType = "document_ingest"
	JobTypeDocumentDelete JobType = "document_delete"
	JobTypeIndexRebuild   JobType = "index_rebuild"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
	JobStatusRetrying   JobStatus = "retrying"
)

// JobDTO represents the API view of a job
type JobDTO struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Status      string                 `json:"status"`
	Progress    int                    `json:"progress"`
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
	CreatedAt   string                 `json:"created_at"`
	StartedAt   string                 `json:"started_at,omitempty"`
	CompletedAt string                 `json:"completed_at,omitempty"`
	UpdatedAt   string                 `json:"updated_at"`
	WorkerID    string                 `json:"worker_id,omitempty"`
	Duration    string                 `json:"duration,omitempty"`
}

// ToDTO converts Job domain model to DTO
func (j *Job) ToDTO() JobDTO {
	dto := JobDTO{
		ID:         j.ID,
		Type:       string(j.Type),
		Status:     string(j.Status),
		Progress:   j.Progress,
		Message:    j.Message,
		Payload:    j.Payload,
		Result:     j.Result,
		Error:      j.Error,
		RetryCount: j.RetryCount,
		MaxRetries: j.MaxRetries,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
		WorkerID:   j.WorkerID,
	}

	if j.StartedAt != nil {
		dto.StartedAt = j.StartedAt.Format(time.RFC3339)
	}
	if j.CompletedAt != nil {
		dto.CompletedAt = j.CompletedAt.Format(time.RFC3339)
	}

	duration := j.Duration()
	if duration > 0 {
		dto.Duration = duration.String()
	}

	return dto
}

// Duration returns how long the job ran (or has been running)
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	if j.CompletedAt != nil {
		return j.CompletedAt.Sub(*j.StartedAt)
	}
	if j.Status == JobStatusProcessing {
		return time.Since(*j.StartedAt)
	}
	return 0
}

// IsTerminal returns true if the job has finished (successfully or not)
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// CanRetry returns true if the job is eligible for another attempt
func (j *Job) CanRetry() bool {
	switch j.Status {
	case JobStatusRetrying, JobStatusFailed:
		return j.RetryCount <= j.MaxRetries
	default:
		return false
	}
}

// Validate checks if the job is valid
func (j *Job) Validate() error {
	if j.ID == "" {
		return &ValidationError{Field: "id", Message: "job ID is required"}
	}
	if j.Type == "" {
		return &ValidationError{Field: "type", Message: "job type is required"}
	}
	if j.Progress < 0 || j.Progress > 100 {
		return &ValidationError{Field: "progress", Message: "progress must be between 0 and 100"}
	}
	return nil
}
