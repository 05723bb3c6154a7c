package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/queue"
)

// ProgressHandler streams job progress over a WebSocket until the job ends.
type ProgressHandler struct {
	jobs     JobQueue
	interval time.Duration
	logger   *zap.SugaredLogger
}

// NewProgressHandler creates a progress handler polling at interval
func NewProgressHandler(jobs JobQueue, interval time.Duration, logger *zap.SugaredLogger) *ProgressHandler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ProgressHandler{jobs: jobs, interval: interval, logger: logger}
}

// Upgrade rejects plain HTTP requests on the WebSocket route.
func (h *ProgressHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle processes WebSocket connections
func (h *ProgressHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	id := c.Params("id")
	job, ok := h.jobs.Job(id)
	if !ok {
		c.WriteJSON(fiber.Map{"error": "Job not found", "code": "ERR_NOT_FOUND"})
		return
	}

	h.logger.Debugw("Progress stream opened", "job_id", id)
	if err := streamProgress(job, h.interval, c.WriteJSON); err != nil {
		h.logger.Debugw("Progress stream closed", "job_id", id, "error", err)
	}
}

// streamProgress writes a snapshot whenever status or counts change and
// returns after the terminal snapshot has been written.
func streamProgress(job *queue.Job, interval time.Duration, write func(v interface{}) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last queue.JobSnapshot
	sent := false
	for {
		snap := job.Snapshot()
		if !sent || snap.Status != last.Status || snap.Progress != last.Progress {
			if err := write(snap); err != nil {
				return err
			}
			last, sent = snap, true
		}
		if queue.Terminal(snap.Status) {
			return nil
		}

		select {
		case <-job.Done():
		case <-ticker.C:
		}
	}
}
