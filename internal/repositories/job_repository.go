package repositories

import (
	"context"

	"askdocs/internal/models"
)

// JobRepository defines the interface for the background job queue
type JobRepository interface {
	// Enqueue stores a job and places it on the pending queue
	Enqueue(ctx context.Context, job *models.Job) error

	// Dequeue pops the oldest pending job, marking it processing.
	// Returns nil when the queue is empty.
	Dequeue(ctx context.Context, workerID string) (*models.Job, error)

	// Get retrieves a job by ID
	Get(ctx context.Context, jobID string) (*models.Job, error)

	// Update replaces a stored job
	Update(ctx context.Context, job *models.Job) error

	// Requeue puts a failed job back on the pending queue for another attempt
	Requeue(ctx context.Context, job *models.Job) error

	// PendingCount returns the number of jobs waiting on the queue
	PendingCount(ctx context.Context) (int64, error)
}

// JobRepositoryError represents errors from the job repository
type JobRepositoryError struct {
	Operation string
	JobID     string
	Err       error
	Message   string
}

func (e *JobRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *JobRepositoryError) Unwrap() error {
	return e.Err
}

// NewJobRepositoryError creates a new job repository error
func NewJobRepositoryError(operation string, jobID string, err error, message string) *JobRepositoryError {
	return &JobRepositoryError{
		Operation: operation,
		JobID:     jobID,
		Err:       err,
		Message:   message,
	}
}

// JobNotFoundError indicates no job is stored under the ID
func JobNotFoundError(jobID string) error {
	return NewJobRepositoryError("get", jobID, nil, "job not found: "+jobID)
}
