// Package pipeline turns one audio file into one transcript: load, split,
// transcribe chunks concurrently, reassemble, persist.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/transcript"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// Options holds the directories and chunking parameters of a pipeline.
type Options struct {
	InputDir      string
	OutputDir     string
	ChunkLengthMs int64
	Model         string
}

// Pipeline owns the resources of a transcription run.
type Pipeline struct {
	opts      Options
	loader    *audio.Loader
	service   transcription.Service
	scheduler *scheduler.Scheduler
	store     *storage.LocalStorage
	logger    *zap.SugaredLogger
}

// New wires a pipeline together.
func New(opts Options, loader *audio.Loader, service transcription.Service, sched *scheduler.Scheduler, logger *zap.SugaredLogger) (*Pipeline, error) {
	if opts.InputDir == "" || opts.OutputDir == "" {
		return nil, fmt.Errorf("%w: input and output directories are required", types.ErrConfig)
	}
	if opts.ChunkLengthMs <= 0 {
		return nil, fmt.Errorf("%w: chunk length must be positive, got %dms", types.ErrConfig, opts.ChunkLengthMs)
	}
	if loader == nil || service == nil || sched == nil {
		return nil, fmt.Errorf("%w: loader, service and scheduler are required", types.ErrConfig)
	}
	return &Pipeline{
		opts:      opts,
		loader:    loader,
		service:   service,
		scheduler: sched,
		store:     storage.NewLocalStorage(opts.OutputDir),
		logger:    logger,
	}, nil
}

// Loader exposes the format checks used by upload validation
func (p *Pipeline) Loader() *audio.Loader { return p.loader }

// InputDir is where input names are resolved
func (p *Pipeline) InputDir() string { return p.opts.InputDir }

// OutputDir holds transcripts and temporary chunk exports
func (p *Pipeline) OutputDir() string { return p.opts.OutputDir }

// EnsureDirs creates the input and output directories if they are missing.
func (p *Pipeline) EnsureDirs() error {
	for _, dir := range []string{p.opts.InputDir, p.opts.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveInput maps an input name to a path inside the input directory.
// Names cannot climb out of it.
func (p *Pipeline) ResolveInput(inputName string) string {
	return filepath.Join(p.opts.InputDir, filepath.Clean(string(filepath.Separator)+inputName))
}

// TranscribeFile transcribes inputName (relative to the input directory) and
// writes the transcript to <output>/<stem>.txt.
//
// On any error nothing is written. With the collect-all policy a run in which
// some chunks failed still writes the transcript of the chunks that succeeded;
// the result lists the failed indices. progress may be nil.
func (p *Pipeline) TranscribeFile(ctx context.Context, inputName string, progress scheduler.ProgressFunc) (*types.TranscriptionResult, error) {
	start := time.Now()

	if err := p.EnsureDirs(); err != nil {
		return nil, err
	}

	inputPath := p.ResolveInput(inputName)
	outputPath := p.store.TranscriptPath(inputName)

	p.logger.Infow("Loading audio", "input", inputPath)
	handle, err := p.loader.Load(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	duration := handle.Duration()

	chunks, err := audio.Split(handle, p.opts.ChunkLengthMs)
	if err != nil {
		return nil, err
	}
	p.logger.Infow("Audio split",
		"input", inputName,
		"duration", duration,
		"chunks", len(chunks),
		"workers", p.scheduler.Concurrency(),
	)

	ct := transcription.NewChunkTranscriber(p.service, p.opts.OutputDir, p.logger)
	results, runErr := p.scheduler.RunAll(ctx, chunks, ct, scheduler.NewTracker(progress))
	if results == nil {
		return nil, runErr
	}

	text, failed, err := p.assemble(results, len(chunks), runErr)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveTranscript(outputPath, text); err != nil {
		return nil, err
	}

	result := &types.TranscriptionResult{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		Model:        p.opts.Model,
		Duration:     duration.Seconds(),
		ChunkCount:   len(chunks),
		FailedChunks: failed,
		WordCount:    len(strings.Fields(text)),
		ProcessedAt:  time.Now(),
	}
	if _, err := p.store.SaveMetadata(inputName, result); err != nil {
		p.logger.Warnw("Failed to write metadata sidecar", "output", outputPath, "error", err)
	}

	p.logger.Infow("Transcription complete",
		"input", inputName,
		"output", outputPath,
		"chunks", len(chunks),
		"failed_chunks", len(failed),
		"words", result.WordCount,
		"elapsed", time.Since(start),
	)
	return result, nil
}

// assemble picks the transcript text for the batch outcome.
func (p *Pipeline) assemble(results map[int]types.ChunkResult, total int, runErr error) (string, []int, error) {
	failed := scheduler.FailedIndices(results)
	if len(failed) == 0 {
		if runErr != nil {
			return "", nil, runErr
		}
		text, err := transcript.FromResults(results, total)
		return text, nil, err
	}

	if len(failed) == total {
		return "", nil, runErr
	}
	p.logger.Warnw("Writing partial transcript", "failed_chunks", failed, "error", runErr)
	return transcript.Partial(results), failed, nil
}
