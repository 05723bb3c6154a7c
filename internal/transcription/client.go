package transcription

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// TempChunkPrefix names every per-chunk export so stale ones can be swept.
const TempChunkPrefix = "temp_chunk_"

// ChunkTranscriber exports one chunk to a private temp file, hands it to the
// Service and deletes the file again on every exit path.
type ChunkTranscriber struct {
	service Service
	tempDir string
	logger  *zap.SugaredLogger
}

// NewChunkTranscriber creates a chunk transcriber writing exports into tempDir
func NewChunkTranscriber(service Service, tempDir string, logger *zap.SugaredLogger) *ChunkTranscriber {
	return &ChunkTranscriber{
		service: service,
		tempDir: tempDir,
		logger:  logger,
	}
}

// Transcribe makes a single attempt at transcribing chunk.
func (ct *ChunkTranscriber) Transcribe(ctx context.Context, chunk audio.Chunk) (string, error) {
	path, err := ct.export(chunk)
	if err != nil {
		return "", err
	}
	defer ct.release(path)

	text, err := ct.service.Transcribe(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			// A sibling failed first; its error is the one that matters.
			ct.logger.Debugw("Chunk cancelled", "chunk", chunk.Index, "error", err)
		} else {
			ct.logger.Errorw("Error processing chunk", "chunk", chunk.Index, "error", err)
		}
		if errors.Is(err, types.ErrTranscriptionService) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", types.ErrTranscriptionService, err)
	}
	return text, nil
}

// export writes the chunk as WAV under a name unique to this call
func (ct *ChunkTranscriber) export(chunk audio.Chunk) (string, error) {
	name := fmt.Sprintf("%s%d_%s.wav", TempChunkPrefix, chunk.Index, uuid.New().String())
	path := filepath.Join(ct.tempDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: chunk %d: %v", types.ErrExport, chunk.Index, err)
	}

	if err := audio.WriteWAV(f, chunk.Audio); err != nil {
		f.Close()
		ct.release(path)
		return "", fmt.Errorf("%w: chunk %d: %v", types.ErrExport, chunk.Index, err)
	}
	if err := f.Close(); err != nil {
		ct.release(path)
		return "", fmt.Errorf("%w: chunk %d: %v", types.ErrExport, chunk.Index, err)
	}
	return path, nil
}

// release removes a temp export. Failures are logged only, so they never
// replace the error the caller is already returning.
func (ct *ChunkTranscriber) release(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ct.logger.Warnw("Failed to cleanup temp file", "path", path, "error", err)
	}
}
