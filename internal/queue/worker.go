package queue

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/recap"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("job queue is full")

// Transcriber runs the chunked pipeline for one input file.
type Transcriber interface {
	TranscribeFile(ctx context.Context, inputName string, progress scheduler.ProgressFunc) (*types.TranscriptionResult, error)
	ResolveInput(inputName string) string
}

// Publisher copies finished transcripts somewhere shareable.
type Publisher interface {
	Upload(ctx context.Context, requestName string, result *types.TranscriptionResult) (string, error)
}

// Store persists job metadata.
type Store interface {
	CreateJob(ctx context.Context, jobID, requestName, sourceType string) error
	UpdateStatus(ctx context.Context, jobID, status, errMsg string) error
	SaveResult(ctx context.Context, status string, result *types.TranscriptionResult) error
}

// Options sizes the pool.
type Options struct {
	Workers   int
	QueueSize int

	// UploadAttempts and Backoff control publishing retries.
	UploadAttempts int
	Backoff        func(attempt int) time.Duration

	// Retention is how long finished jobs stay in memory. Older ones are
	// served from the store.
	Retention time.Duration
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.UploadAttempts <= 0 {
		o.UploadAttempts = 3
	}
	if o.Retention <= 0 {
		o.Retention = time.Hour
	}
	if o.Backoff == nil {
		o.Backoff = func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		}
	}
}

// WorkerPool manages a pool of workers processing transcription jobs
type WorkerPool struct {
	opts       Options
	jobQueue   chan *Job
	pipeline   Transcriber
	publisher  Publisher
	db         Store
	summarizer recap.Summarizer
	logger     *zap.SugaredLogger

	mu   sync.RWMutex
	jobs map[string]*Job

	wg sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. publisher, db and summarizer may
// be nil to skip that step.
func NewWorkerPool(
	opts Options,
	pipeline Transcriber,
	publisher Publisher,
	db Store,
	summarizer recap.Summarizer,
	logger *zap.SugaredLogger,
) *WorkerPool {
	opts.applyDefaults()
	return &WorkerPool{
		opts:       opts,
		jobQueue:   make(chan *Job, opts.QueueSize),
		pipeline:   pipeline,
		publisher:  publisher,
		db:         db,
		summarizer: summarizer,
		logger:     logger,
		jobs:       make(map[string]*Job),
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is called.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.logger.Infow("Starting worker pool", "workers", wp.opts.Workers, "queue_size", wp.opts.QueueSize)
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

// EnqueueJob records the job and adds it to the queue
func (wp *WorkerPool) EnqueueJob(ctx context.Context, job *Job) error {
	if wp.db != nil {
		if err := wp.db.CreateJob(ctx, job.ID, job.RequestName, job.SourceType); err != nil {
			return err
		}
	}

	wp.prune(time.Now())

	wp.mu.Lock()
	wp.jobs[job.ID] = job
	wp.mu.Unlock()

	select {
	case wp.jobQueue <- job:
	default:
		wp.mu.Lock()
		delete(wp.jobs, job.ID)
		wp.mu.Unlock()
		wp.recordFailure(ctx, job, ErrQueueFull)
		return ErrQueueFull
	}

	wp.logger.Infow("Job enqueued", "job_id", job.ID, "source", job.SourceType, "name", job.RequestName)
	return nil
}

// Job looks up a job enqueued since the process started
func (wp *WorkerPool) Job(id string) (*Job, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	job, ok := wp.jobs[id]
	return job, ok
}

// prune drops finished jobs older than the retention window at now.
func (wp *WorkerPool) prune(now time.Time) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for id, job := range wp.jobs {
		finished := job.FinishedAt()
		if !finished.IsZero() && now.Sub(finished) > wp.opts.Retention {
			delete(wp.jobs, id)
		}
	}
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debugw("Worker started", "worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			wp.runJob(ctx, id, job)
		}
	}
}

// runJob wraps processJob with panic recovery
func (wp *WorkerPool) runJob(ctx context.Context, workerID int, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Errorw("PANIC processing job",
				"worker", workerID, "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
			wp.recordFailure(ctx, job, fmt.Errorf("worker panic: %v", r))
		}
	}()

	wp.processJob(ctx, workerID, job)
}

// processJob runs the pipeline and the follow-up steps for one job
func (wp *WorkerPool) processJob(ctx context.Context, workerID int, job *Job) {
	wp.logger.Infow("Processing job", "worker", workerID, "job_id", job.ID)
	job.setStatus(types.StatusProcessing)
	if wp.db != nil {
		if err := wp.db.UpdateStatus(ctx, job.ID, types.StatusProcessing, ""); err != nil {
			wp.logger.Warnw("Database status update failed", "job_id", job.ID, "error", err)
		}
	}
	defer wp.cleanupInput(job)

	// Step 1: chunked transcription
	result, err := wp.pipeline.TranscribeFile(ctx, job.InputName, job.UpdateProgress)
	if err != nil {
		wp.logger.Errorw("Transcription failed", "worker", workerID, "job_id", job.ID, "error", err)
		wp.recordFailure(ctx, job, err)
		return
	}
	result.JobID = job.ID

	// Step 2: optional recap, never fatal
	if wp.summarizer != nil {
		recapPath, err := recap.WriteRecap(ctx, wp.summarizer, result.OutputPath)
		if err != nil {
			wp.logger.Warnw("Meeting recap failed", "job_id", job.ID, "error", err)
		} else {
			result.RecapPath = recapPath
		}
	}

	// Step 3: upload to Google Drive (with retry)
	if wp.publisher != nil {
		wp.publish(ctx, workerID, job, result)
	}

	status := types.StatusCompleted
	if result.Partial() {
		status = types.StatusPartial
	}

	// Step 4: save metadata to database
	if wp.db != nil {
		if err := wp.db.SaveResult(ctx, status, result); err != nil {
			wp.logger.Errorw("Database save failed", "job_id", job.ID, "error", err)
		}
	}

	job.Finish(result)
	wp.logger.Infow("Job completed",
		"worker", workerID,
		"job_id", job.ID,
		"status", status,
		"local", result.OutputPath,
		"gdrive", result.GDriveURL,
	)
}

func (wp *WorkerPool) publish(ctx context.Context, workerID int, job *Job, result *types.TranscriptionResult) {
	var err error
	for attempt := 1; attempt <= wp.opts.UploadAttempts; attempt++ {
		var url string
		url, err = wp.publisher.Upload(ctx, job.RequestName, result)
		if url != "" {
			// The transcript is up; retrying would duplicate it.
			result.GDriveURL = url
			if err != nil {
				wp.logger.Warnw("Google Drive upload incomplete", "worker", workerID, "job_id", job.ID, "error", err)
			}
			return
		}
		if err == nil {
			return
		}
		wp.logger.Warnw("Google Drive upload failed",
			"worker", workerID, "job_id", job.ID,
			"attempt", attempt, "max_attempts", wp.opts.UploadAttempts, "error", err)

		if attempt < wp.opts.UploadAttempts {
			select {
			case <-time.After(wp.opts.Backoff(attempt)):
			case <-ctx.Done():
				return
			}
		}
	}
	wp.logger.Warnw("Google Drive upload gave up, transcript kept locally only", "job_id", job.ID, "error", err)
}

// recordFailure persists the failure before marking the job done, so a
// waiter on Done sees the stored status.
func (wp *WorkerPool) recordFailure(ctx context.Context, job *Job, err error) {
	if wp.db != nil {
		if dbErr := wp.db.UpdateStatus(ctx, job.ID, types.StatusFailed, err.Error()); dbErr != nil {
			wp.logger.Warnw("Database status update failed", "job_id", job.ID, "error", dbErr)
		}
	}
	job.Fail(err)
}

// cleanupInput removes the job's uploaded source file
func (wp *WorkerPool) cleanupInput(job *Job) {
	if job.InputName == "" {
		return
	}
	path := wp.pipeline.ResolveInput(job.InputName)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		wp.logger.Warnw("Failed to cleanup input file", "path", path, "error", err)
	}
}
