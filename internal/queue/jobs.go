package queue

import (
	"sync"
	"time"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// Job represents a transcription job. InputName is relative to the pipeline
// input directory. Mutable state is read through Snapshot.
type Job struct {
	ID          string
	RequestName string
	SourceType  string
	InputName   string
	CreatedAt   time.Time

	mu       sync.RWMutex
	status   string
	err      error
	result   *types.TranscriptionResult
	progress scheduler.Snapshot
	finished time.Time
	done     chan struct{}
}

// JobSnapshot is the JSON view of a job
type JobSnapshot struct {
	ID          string                     `json:"job_id"`
	RequestName string                     `json:"request_name"`
	SourceType  string                     `json:"source_type"`
	Status      string                     `json:"status"`
	Progress    scheduler.Snapshot         `json:"progress"`
	Error       string                     `json:"error,omitempty"`
	Result      *types.TranscriptionResult `json:"result,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// NewJob creates a new job with default values
func NewJob(id, requestName, sourceType, inputName string) *Job {
	return &Job{
		ID:          id,
		RequestName: requestName,
		SourceType:  sourceType,
		InputName:   inputName,
		CreatedAt:   time.Now(),
		status:      types.StatusQueued,
		done:        make(chan struct{}),
	}
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Status returns the current status
func (j *Job) Status() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Err returns the failure, if any
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Snapshot copies the job state
func (j *Job) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := JobSnapshot{
		ID:          j.ID,
		RequestName: j.RequestName,
		SourceType:  j.SourceType,
		Status:      j.status,
		Progress:    j.progress,
		Result:      j.result,
		CreatedAt:   j.CreatedAt,
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

// UpdateProgress records chunk counts; it matches scheduler.ProgressFunc.
func (j *Job) UpdateProgress(completed, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.Completed = completed
	j.progress.Total = total
}

// Fail marks the job failed. Calls after a terminal status are ignored.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	if Terminal(j.status) {
		j.mu.Unlock()
		return
	}
	j.status = types.StatusFailed
	j.err = err
	j.finished = time.Now()
	j.mu.Unlock()
	close(j.done)
}

// Finish stores the result and marks the job completed, or partial when
// chunks were dropped.
func (j *Job) Finish(result *types.TranscriptionResult) {
	j.mu.Lock()
	if Terminal(j.status) {
		j.mu.Unlock()
		return
	}
	j.result = result
	j.status = types.StatusCompleted
	if result.Partial() {
		j.status = types.StatusPartial
		j.progress.Failed = len(result.FailedChunks)
	}
	j.finished = time.Now()
	j.mu.Unlock()
	close(j.done)
}

// FinishedAt returns when the job reached a terminal status, or the zero
// time while it is still running.
func (j *Job) FinishedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finished
}

// Terminal reports whether status is final
func Terminal(status string) bool {
	switch status {
	case types.StatusCompleted, types.StatusPartial, types.StatusFailed:
		return true
	}
	return false
}
