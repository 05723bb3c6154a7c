// Package handlers exposes the job service over HTTP and WebSocket.
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/storage"
)

// JobQueue accepts jobs and looks them up again.
type JobQueue interface {
	EnqueueJob(ctx context.Context, job *queue.Job) error
	Job(id string) (*queue.Job, bool)
}

// FormatChecker reports whether a filename has a supported audio extension.
type FormatChecker interface {
	SupportsFormat(filename string) bool
	Formats() []string
}

// inputName is the on-disk name for a job's source file. The job id prefix
// keeps concurrent uploads of the same file apart.
func inputName(jobID, filename string) string {
	return fmt.Sprintf("%s_%s", jobID, storage.SanitizeFilename(filename))
}

func newJobID() string {
	return uuid.New().String()
}
