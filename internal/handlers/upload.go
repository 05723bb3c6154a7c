package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// UploadHandler handles file uploads
type UploadHandler struct {
	jobs      JobQueue
	formats   FormatChecker
	inputDir  string
	maxSizeMB int
	logger    *zap.SugaredLogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(jobs JobQueue, formats FormatChecker, inputDir string, maxSizeMB int, logger *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{
		jobs:      jobs,
		formats:   formats,
		inputDir:  inputDir,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	// Get uploaded file
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	// Get request name
	requestName := c.FormValue("name")
	if requestName == "" {
		requestName = file.Filename
	}

	// Validate file size
	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	// Validate file format
	if !h.formats.SupportsFormat(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported audio format %q (supported: %s)",
				filepath.Ext(file.Filename), strings.Join(h.formats.Formats(), ", ")),
			"code": "ERR_INVALID_FORMAT",
		})
	}

	jobID := newJobID()
	name := inputName(jobID, file.Filename)

	if err := c.SaveFile(file, filepath.Join(h.inputDir, name)); err != nil {
		h.logger.Errorw("Failed to save uploaded file", "job_id", jobID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	job := queue.NewJob(jobID, requestName, types.SourceUpload, name)
	if err := h.jobs.EnqueueJob(c.UserContext(), job); err != nil {
		h.logger.Errorw("Failed to enqueue job", "job_id", jobID, "error", err)
		os.Remove(filepath.Join(h.inputDir, name))
		return enqueueFailed(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":  jobID,
		"status":  types.StatusQueued,
		"message": "File uploaded successfully, processing started",
	})
}

func enqueueFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, queue.ErrQueueFull) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Too many jobs queued, try again later",
			"code":  "ERR_QUEUE_FULL",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to queue job",
		"code":  "ERR_ENQUEUE_FAILED",
	})
}
