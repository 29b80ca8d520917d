package workers

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
)

type fakeJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job
	queue   []*models.Job
	updates []models.JobStatus
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*models.Job)}
}

func (r *fakeJobRepo) Enqueue(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.queue = append(r.queue, job)
	return nil
}

func (r *fakeJobRepo) Dequeue(ctx context.Context, workerID string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, nil
	}
	job := r.queue[0]
	r.queue = r.queue[1:]
	job.Status = models.JobStatusProcessing
	job.WorkerID = workerID
	return job, nil
}

func (r *fakeJobRepo) Get(ctx context.Context, jobID string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, repositories.JobNotFoundError(jobID)
	}
	return job, nil
}

func (r *fakeJobRepo) Update(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.updates = append(r.updates, job.Status)
	return nil
}

func (r *fakeJobRepo) Requeue(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.queue = append(r.queue, job)
	r.updates = append(r.updates, job.Status)
	return nil
}

func (r *fakeJobRepo) PendingCount(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.queue)), nil
}

type fakeDocRepo struct {
	docs map[string]*models.Document
}

func (r *fakeDocRepo) Register(ctx context.Context, doc *models.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) Get(ctx context.Context, documentID string) (*models.Document, error) {
	doc, ok := r.docs[documentID]
	if !ok {
		return nil, repositories.DocumentNotFoundError(documentID)
	}
	return doc, nil
}

func (r *fakeDocRepo) List(ctx context.Context) ([]*models.Document, error) { return nil, nil }
func (r *fakeDocRepo) ListByCollection(ctx context.Context, collection string) ([]*models.Document, error) {
	return nil, nil
}
func (r *fakeDocRepo) Update(ctx context.Context, doc *models.Document) error { return nil }
func (r *fakeDocRepo) Delete(ctx context.Context, documentID string) error    { return nil }
func (r *fakeDocRepo) Exists(ctx context.Context, documentID string) (bool, error) {
	_, ok := r.docs[documentID]
	return ok, nil
}
func (r *fakeDocRepo) Ping(ctx context.Context) error { return nil }

// fakePipeline records calls and fails on demand.
type fakePipeline struct {
	ingestErr  error
	ingested   []string
	deleted    []string
	rebuilds   int
	panicOnRun bool
}

func (p *fakePipeline) IngestDocument(ctx context.Context, doc *models.Document, text string) error {
	if p.panicOnRun {
		panic("pipeline exploded")
	}
	if p.ingestErr != nil {
		return p.ingestErr
	}
	doc.ChunkCount = 3
	p.ingested = append(p.ingested, doc.ID)
	return nil
}

func (p *fakePipeline) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	p.deleted = append(p.deleted, documentID)
	return 2, nil
}

func (p *fakePipeline) RebuildIndex(ctx context.Context) (int, error) {
	p.rebuilds++
	return 1, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerName:     "test-worker",
		PollInterval:   5 * time.Millisecond,
		RetryDelay:     time.Millisecond,
		EnableRecovery: true,
	}
}

func ingestJob(id, documentID string) *models.Job {
	return &models.Job{
		ID:         id,
		Type:       models.JobTypeDocumentIngest,
		Status:     models.JobStatusPending,
		Payload:    map[string]interface{}{"document_id": documentID, "text": "some text"},
		MaxRetries: 2,
		CreatedAt:  time.Now(),
	}
}

func newWorkerFixture() (*IngestWorker, *fakeJobRepo, *fakeDocRepo, *fakePipeline) {
	jobRepo := newFakeJobRepo()
	docRepo := &fakeDocRepo{docs: map[string]*models.Document{
		"doc-1": {ID: "doc-1", Name: "test-doc", Collection: "default"},
	}}
	pipeline := &fakePipeline{}
	worker := NewIngestWorker(testWorkerConfig(), jobRepo, docRepo, pipeline, discardLogger())
	return worker, jobRepo, docRepo, pipeline
}

func TestIngestWorker_ProcessIngestJob(t *testing.T) {
	worker, jobRepo, _, pipeline := newWorkerFixture()
	job := ingestJob("job-1", "doc-1")

	worker.processJob(context.Background(), job)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, []string{"doc-1"}, pipeline.ingested)
	assert.Equal(t, 3, job.Result["chunk_count"])
	assert.Equal(t, "default", job.Result["collection"])

	stored, err := jobRepo.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)

	stats := worker.Stats()
	assert.Equal(t, int64(1), stats.JobsProcessed)
	assert.Equal(t, int64(1), stats.JobsSucceeded)
}

func TestIngestWorker_ProcessDeleteJob(t *testing.T) {
	worker, _, _, pipeline := newWorkerFixture()
	job := &models.Job{
		ID:      "job-2",
		Type:    models.JobTypeDocumentDelete,
		Payload: map[string]interface{}{"document_id": "doc-1"},
	}

	worker.processJob(context.Background(), job)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, []string{"doc-1"}, pipeline.deleted)
	assert.Equal(t, 2, job.Result["chunks_removed"])
}

func TestIngestWorker_ProcessRebuildJob(t *testing.T) {
	worker, _, _, pipeline := newWorkerFixture()
	job := &models.Job{ID: "job-3", Type: models.JobTypeIndexRebuild}

	worker.processJob(context.Background(), job)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, pipeline.rebuilds)
	assert.Equal(t, 1, job.Result["documents_rebuilt"])
}

func TestIngestWorker_FailedJobIsRequeued(t *testing.T) {
	worker, jobRepo, _, pipeline := newWorkerFixture()
	pipeline.ingestErr = errors.New("embedding backend down")
	job := ingestJob("job-1", "doc-1")

	worker.processJob(context.Background(), job)

	assert.Equal(t, models.JobStatusRetrying, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Contains(t, job.Error, "embedding backend down")

	pending, err := jobRepo.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending, "retryable job goes back on the queue")
}

func TestIngestWorker_PermanentFailureAfterMaxRetries(t *testing.T) {
	worker, jobRepo, _, pipeline := newWorkerFixture()
	pipeline.ingestErr = errors.New("always broken")
	job := ingestJob("job-1", "doc-1")
	ctx := context.Background()

	for i := 0; i <= job.MaxRetries; i++ {
		worker.processJob(ctx, job)
	}

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, job.MaxRetries+1, job.RetryCount)
	require.NotNil(t, job.CompletedAt)

	pending, err := jobRepo.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(job.MaxRetries), pending, "no requeue after the final attempt")

	stats := worker.Stats()
	assert.Equal(t, int64(job.MaxRetries+1), stats.JobsFailed)
}

func TestIngestWorker_RecoversFromPanic(t *testing.T) {
	worker, _, _, pipeline := newWorkerFixture()
	pipeline.panicOnRun = true
	job := ingestJob("job-1", "doc-1")

	require.NotPanics(t, func() {
		worker.processJob(context.Background(), job)
	})
	assert.Equal(t, models.JobStatusRetrying, job.Status)
	assert.Contains(t, job.Error, "pipeline exploded")
}

func TestIngestWorker_UnsupportedJobType(t *testing.T) {
	worker, _, _, _ := newWorkerFixture()
	job := &models.Job{ID: "job-x", Type: "make_coffee"}

	worker.processJob(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "unsupported job type")
}

func TestIngestWorker_MissingPayloadField(t *testing.T) {
	worker, _, _, _ := newWorkerFixture()
	job := &models.Job{
		ID:      "job-1",
		Type:    models.JobTypeDocumentIngest,
		Payload: map[string]interface{}{},
	}

	worker.processJob(context.Background(), job)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "document_id")
}

func TestIngestWorker_StartStopLifecycle(t *testing.T) {
	worker, jobRepo, _, pipeline := newWorkerFixture()
	ctx := context.Background()

	require.NoError(t, jobRepo.Enqueue(ctx, ingestJob("job-1", "doc-1")))

	require.NoError(t, worker.Start(ctx))
	assert.True(t, worker.IsRunning())

	assert.Error(t, worker.Start(ctx), "double start is rejected")

	require.Eventually(t, func() bool {
		job, err := jobRepo.Get(ctx, "job-1")
		return err == nil && job.Status == models.JobStatusCompleted
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, worker.Stop(stopCtx))
	assert.False(t, worker.IsRunning())

	assert.Equal(t, []string{"doc-1"}, pipeline.ingested)
}
