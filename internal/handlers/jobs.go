package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// TranscriptStore reads job metadata.
type TranscriptStore interface {
	GetTranscript(ctx context.Context, jobID string) (*types.TranscriptRecord, error)
	ListTranscripts(ctx context.Context, limit int) ([]types.TranscriptRecord, error)
}

// JobsHandler reports job status
type JobsHandler struct {
	jobs  JobQueue
	store TranscriptStore
}

// NewJobsHandler creates a jobs handler. store may be nil.
func NewJobsHandler(jobs JobQueue, store TranscriptStore) *JobsHandler {
	return &JobsHandler{jobs: jobs, store: store}
}

// Get returns the live state of a job, falling back to the stored record for
// jobs from an earlier run.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if job, ok := h.jobs.Job(id); ok {
		return c.JSON(job.Snapshot())
	}

	if h.store != nil {
		rec, err := h.store.GetTranscript(c.UserContext(), id)
		if err == nil {
			return c.JSON(rec)
		}
		if !errors.Is(err, types.ErrNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Job not found",
		"code":  "ERR_NOT_FOUND",
	})
}
