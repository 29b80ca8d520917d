package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"askdocs/internal/models"
)

const (
	jobKeyPrefix    = "job:"
	jobPendingQueue = "jobs:pending"

	// Completed jobs are kept around for status polling, then expire
	jobRetention = 24 * time.Hour
)

// RedisJobRepository implements JobRepository using Redis. Jobs are stored as
// JSON values and the pending queue is a Redis list (LPUSH / RPOP gives FIFO).
type RedisJobRepository struct {
	client *redis.Client
}

// NewRedisJobRepository creates a new Redis-based job repository
func NewRedisJobRepository(client *redis.Client) JobRepository {
	return &RedisJobRepository{
		client: client,
	}
}

// Enqueue stores a job and places it on the pending queue
func (r *RedisJobRepository) Enqueue(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	now := time.Now()
	job.Status = models.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return NewJobRepositoryError("enqueue", job.ID, err, "failed to marshal job")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, jobJSON, 0)
	pipe.LPush(ctx, jobPendingQueue, job.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewJobRepositoryError("enqueue", job.ID, err, "failed to execute transaction")
	}

	return nil
}

// Dequeue pops the oldest pending job and marks it processing
func (r *RedisJobRepository) Dequeue(ctx context.Context, workerID string) (*models.Job, error) {
	jobID, err := r.client.RPop(ctx, jobPendingQueue).Result()
	if err == redis.Nil {
		return nil, nil // queue empty
	}
	if err != nil {
		return nil, NewJobRepositoryError("dequeue", "", err, "")
	}

	job, err := r.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	job.WorkerID = workerID

	if err := r.Update(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

// Get retrieves a job by ID
func (r *RedisJobRepository) Get(ctx context.Context, jobID string) (*models.Job, error) {
	jobJSON, err := r.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if err == redis.Nil {
		return nil, JobNotFoundError(jobID)
	}
	if err != nil {
		return nil, NewJobRepositoryError("get", jobID, err, "")
	}

	var job models.Job
	if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
		return nil, NewJobRepositoryError("get", jobID, err, "failed to unmarshal job")
	}

	return &job, nil
}

// Update replaces a stored job. Terminal jobs get a retention TTL so
// completed entries do not accumulate forever.
func (r *RedisJobRepository) Update(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = time.Now()

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return NewJobRepositoryError("update", job.ID, err, "failed to marshal job")
	}

	expiration := time.Duration(0)
	if job.IsTerminal() {
		expiration = jobRetention
	}

	if err := r.client.Set(ctx, jobKeyPrefix+job.ID, jobJSON, expiration).Err(); err != nil {
		return NewJobRepositoryError("update", job.ID, err, "")
	}

	return nil
}

// Requeue puts a failed job back on the pending queue for another attempt.
// Retry accounting (count, status) belongs to the caller; this only persists
// the job and re-lists it.
func (r *RedisJobRepository) Requeue(ctx context.Context, job *models.Job) error {
	if !job.CanRetry() {
		return NewJobRepositoryError("requeue", job.ID, nil, "job has exhausted its retries: "+job.ID)
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return NewJobRepositoryError("requeue", job.ID, err, "failed to marshal job")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, jobJSON, 0)
	pipe.LPush(ctx, jobPendingQueue, job.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewJobRepositoryError("requeue", job.ID, err, "failed to execute transaction")
	}

	return nil
}

// PendingCount returns the number of jobs waiting on the queue
func (r *RedisJobRepository) PendingCount(ctx context.Context) (int64, error) {
	count, err := r.client.LLen(ctx, jobPendingQueue).Result()
	if err != nil {
		return 0, NewJobRepositoryError("pending_count", "", err, "")
	}
	return count, nil
}
