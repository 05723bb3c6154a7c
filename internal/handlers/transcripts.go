package handlers

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// TranscriptsHandler serves stored transcripts
type TranscriptsHandler struct {
	store TranscriptStore
}

// NewTranscriptsHandler creates a transcripts handler
func NewTranscriptsHandler(store TranscriptStore) *TranscriptsHandler {
	return &TranscriptsHandler{store: store}
}

// List returns the newest transcripts; ?limit= caps the count (default 50).
func (h *TranscriptsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	transcripts, err := h.store.ListTranscripts(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(transcripts)
}

// Text returns the transcript body for a job
func (h *TranscriptsHandler) Text(c *fiber.Ctx) error {
	rec, err := h.store.GetTranscript(c.UserContext(), c.Params("id"))
	if errors.Is(err, types.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transcript not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if rec.LocalPath == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Transcript file path not found",
			"status": rec.Status,
		})
	}

	content, err := os.ReadFile(rec.LocalPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read transcript file"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(content)
}
