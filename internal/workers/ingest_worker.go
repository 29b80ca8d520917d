package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
)

// IngestPipeline is the slice of the ingestion service the worker needs.
type IngestPipeline interface {
	IngestDocument(ctx context.Context, doc *models.Document, text string) error
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	RebuildIndex(ctx context.Context) (int, error)
}

// IngestWorker drains the job queue and runs each job through the ingest
// pipeline. One worker runs a single poll loop; run several workers for
// parallel ingestion.
type IngestWorker struct {
	*BaseWorker
	jobRepo  repositories.JobRepository
	docRepo  repositories.DocumentRepository
	pipeline IngestPipeline
	logger   *log.Logger
	done     chan struct{}
}

// NewIngestWorker creates a new ingest worker
func NewIngestWorker(config WorkerConfig, jobRepo repositories.JobRepository, docRepo repositories.DocumentRepository, pipeline IngestPipeline, logger *log.Logger) *IngestWorker {
	return &IngestWorker{
		BaseWorker: NewBaseWorker(config),
		jobRepo:    jobRepo,
		docRepo:    docRepo,
		pipeline:   pipeline,
		logger:     logger,
	}
}

// Start begins the poll loop in a new goroutine.
func (w *IngestWorker) Start(ctx context.Context) error {
	if w.IsRunning() {
		return NewWorkerError(w.Name(), "start", nil, "worker already running")
	}

	w.setRunning(true)
	w.done = make(chan struct{})
	w.logger.Printf("Starting ingest worker: %s", w.Name())

	go w.pollLoop(ctx)
	return nil
}

// Stop shuts the worker down and waits for the poll loop to exit or the
// context to expire, whichever comes first.
func (w *IngestWorker) Stop(ctx context.Context) error {
	if !w.IsRunning() {
		return nil
	}

	w.logger.Printf("Stopping ingest worker: %s", w.Name())
	w.setRunning(false)

	select {
	case <-w.done:
	case <-ctx.Done():
		return NewWorkerError(w.Name(), "stop", ctx.Err(), "")
	}

	w.logger.Printf("Ingest worker stopped: %s", w.Name())
	return nil
}

func (w *IngestWorker) pollLoop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.Config().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setRunning(false)
			return

		case <-ticker.C:
			if !w.IsRunning() {
				return
			}

			job, err := w.jobRepo.Dequeue(ctx, w.Name())
			if err != nil {
				w.logger.Printf("Failed to dequeue job: %v", err)
				continue
			}
			if job == nil {
				continue
			}

			w.processJob(ctx, job)
		}
	}
}

// processJob runs a single job and records the outcome in both the worker
// stats and the job repository.
func (w *IngestWorker) processJob(ctx context.Context, job *models.Job) {
	startTime := time.Now()
	w.logger.Printf("Processing job %s (type: %s)", job.ID, job.Type)

	var err error
	if w.Config().EnableRecovery {
		err = w.runJobWithRecovery(ctx, job)
	} else {
		err = w.runJob(ctx, job)
	}

	if err != nil {
		w.handleJobFailure(ctx, job, err, startTime)
		return
	}
	w.handleJobSuccess(ctx, job, startTime)
}

func (w *IngestWorker) runJobWithRecovery(ctx context.Context, job *models.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkerPanicError{Panic: r}
			w.logger.Printf("Panic while processing job %s: %v", job.ID, r)
		}
	}()
	return w.runJob(ctx, job)
}

func (w *IngestWorker) runJob(ctx context.Context, job *models.Job) error {
	switch job.Type {
	case models.JobTypeDocumentIngest:
		return w.runIngestJob(ctx, job)
	case models.JobTypeDocumentDelete:
		return w.runDeleteJob(ctx, job)
	case models.JobTypeIndexRebuild:
		return w.runRebuildJob(ctx, job)
	default:
		return NewWorkerError(w.Name(), "process_job", nil, fmt.Sprintf("unsupported job type: %s", job.Type))
	}
}

func (w *IngestWorker) runIngestJob(ctx context.Context, job *models.Job) error {
	documentID, err := payloadString(job.Payload, "document_id")
	if err != nil {
		return err
	}
	text, _ := payloadString(job.Payload, "text")

	doc, err := w.docRepo.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	if err := w.pipeline.IngestDocument(ctx, doc, text); err != nil {
		return err
	}

	job.Result = map[string]interface{}{
		"document_id": doc.ID,
		"chunk_count": doc.ChunkCount,
		"collection":  doc.Collection,
	}
	return nil
}

func (w *IngestWorker) runDeleteJob(ctx context.Context, job *models.Job) error {
	documentID, err := payloadString(job.Payload, "document_id")
	if err != nil {
		return err
	}

	removed, err := w.pipeline.DeleteDocument(ctx, documentID)
	if err != nil {
		return err
	}

	job.Result = map[string]interface{}{
		"document_id":    documentID,
		"chunks_removed": removed,
	}
	return nil
}

func (w *IngestWorker) runRebuildJob(ctx context.Context, job *models.Job) error {
	rebuilt, err := w.pipeline.RebuildIndex(ctx)
	if err != nil {
		return err
	}

	job.Result = map[string]interface{}{
		"documents_rebuilt": rebuilt,
	}
	return nil
}

func (w *IngestWorker) handleJobSuccess(ctx context.Context, job *models.Job, startTime time.Time) {
	w.recordJobSuccess(startTime)

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.Message = "Job completed successfully"
	job.CompletedAt = &now
	job.UpdatedAt = now

	if err := w.jobRepo.Update(ctx, job); err != nil {
		w.logger.Printf("Failed to mark job %s as completed: %v", job.ID, err)
	}

	w.logger.Printf("Job completed: %s (duration: %v)", job.ID, time.Since(startTime))
}

func (w *IngestWorker) handleJobFailure(ctx context.Context, job *models.Job, jobErr error, startTime time.Time) {
	w.recordJobFailure(startTime)

	job.RetryCount++
	job.Error = jobErr.Error()
	job.UpdatedAt = time.Now()

	if job.RetryCount <= job.MaxRetries {
		w.logger.Printf("Job %s failed, will retry (%d/%d): %v", job.ID, job.RetryCount, job.MaxRetries, jobErr)

		job.Status = models.JobStatusRetrying
		job.Message = fmt.Sprintf("Failed: %v. Retry %d/%d", jobErr, job.RetryCount, job.MaxRetries)

		time.Sleep(w.Config().RetryDelay)
		if err := w.jobRepo.Requeue(ctx, job); err != nil {
			w.logger.Printf("Failed to re-enqueue job %s: %v", job.ID, err)
		}
		return
	}

	w.logger.Printf("Job %s failed permanently after %d retries: %v", job.ID, job.MaxRetries, jobErr)

	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Message = fmt.Sprintf("Failed permanently after %d retries: %v", job.MaxRetries, jobErr)
	job.CompletedAt = &now

	if err := w.jobRepo.Update(ctx, job); err != nil {
		w.logger.Printf("Failed to mark job %s as failed: %v", job.ID, err)
	}
}

func payloadString(payload map[string]interface{}, key string) (string, error) {
	value, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("job payload missing %q", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("job payload field %q is not a string", key)
	}
	return str, nil
}
