package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/queue"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// DefaultDriveDownloadURL fetches a publicly shared Drive file by id.
const DefaultDriveDownloadURL = "https://drive.google.com/uc?export=download&id=%s"

var (
	driveFilePattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveIDParam     = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	driveBareID      = regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
)

// GDriveHandler handles Google Drive link processing
type GDriveHandler struct {
	jobs        JobQueue
	formats     FormatChecker
	inputDir    string
	maxSizeMB   int
	client      *http.Client
	downloadURL string
	logger      *zap.SugaredLogger
}

// NewGDriveHandler creates a new Google Drive handler
func NewGDriveHandler(jobs JobQueue, formats FormatChecker, inputDir string, maxSizeMB int, logger *zap.SugaredLogger) *GDriveHandler {
	return &GDriveHandler{
		jobs:        jobs,
		formats:     formats,
		inputDir:    inputDir,
		maxSizeMB:   maxSizeMB,
		client:      &http.Client{Timeout: 30 * time.Minute},
		downloadURL: DefaultDriveDownloadURL,
		logger:      logger,
	}
}

// WithDownloadURL overrides the download endpoint; the format gets the file id.
func (h *GDriveHandler) WithDownloadURL(format string) *GDriveHandler {
	h.downloadURL = format
	return h
}

// GDriveRequest represents the request body
type GDriveRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Filename string `json:"filename"` // optional, used for the extension
}

// Handle processes Google Drive link requests
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	// Validate URL
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	// Extract file ID from various Google Drive URL formats
	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid Google Drive URL",
			"code":  "ERR_INVALID_URL",
		})
	}

	if req.Name == "" {
		req.Name = "gdrive_file"
	}

	h.logger.Infow("Downloading from Google Drive", "file_id", fileID)

	httpReq, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, fmt.Sprintf(h.downloadURL, fileID), nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build download request",
			"code":  "ERR_DOWNLOAD_FAILED",
		})
	}
	resp, err := h.client.Do(httpReq)
	if err != nil {
		h.logger.Errorw("Failed to download from Google Drive", "file_id", fileID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to download file from Google Drive",
			"code":  "ERR_DOWNLOAD_FAILED",
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File not accessible (may be private or doesn't exist)",
			"code":  "ERR_FILE_NOT_ACCESSIBLE",
		})
	}

	filename := downloadFilename(req.Filename, resp.Header.Get("Content-Disposition"))
	if !h.formats.SupportsFormat(filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported audio format %q", filepath.Ext(filename)),
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	jobID := newJobID()
	name := inputName(jobID, filename)
	path := filepath.Join(h.inputDir, name)

	if err := h.save(path, resp.Body); err != nil {
		h.logger.Errorw("Failed to save downloaded file", "job_id", jobID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save downloaded file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	job := queue.NewJob(jobID, req.Name, types.SourceGDrive, name)
	if err := h.jobs.EnqueueJob(c.UserContext(), job); err != nil {
		h.logger.Errorw("Failed to enqueue job", "job_id", jobID, "error", err)
		os.Remove(path)
		return enqueueFailed(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":  jobID,
		"status":  types.StatusQueued,
		"message": "Google Drive file downloaded, processing started",
	})
}

// save copies at most the size limit into path, removing it on any failure
func (h *GDriveHandler) save(path string, body io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	limit := int64(h.maxSizeMB) * 1024 * 1024
	n, err := io.Copy(out, io.LimitReader(body, limit+1))
	if err == nil && n > limit {
		err = fmt.Errorf("download exceeds %dMB", h.maxSizeMB)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}

// downloadFilename prefers the caller's filename, then the server's, then
// assumes mp3.
func downloadFilename(requested, disposition string) string {
	if requested != "" {
		return requested
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return "gdrive_file.mp3"
}

// extractGDriveFileID extracts the file ID from various Google Drive URL formats
func extractGDriveFileID(url string) string {
	// Pattern 1: https://drive.google.com/file/d/{ID}/view
	if matches := driveFilePattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// Pattern 2: https://drive.google.com/open?id={ID}
	if matches := driveIDParam.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// Pattern 3: Direct ID (25-40 characters)
	if matches := driveBareID.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
