package pipeline

import (
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/config"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/transcription"
)

// FromConfig builds the ffmpeg decoder, the configured transcription backend
// and the chunk scheduler, and wires them into a pipeline.
func FromConfig(cfg *config.Config, logger *zap.SugaredLogger) (*Pipeline, error) {
	decoder := audio.NewFFmpegDecoder(cfg.Pipeline.FFmpegPath, audio.DefaultSampleRate)
	loader := audio.NewLoader(decoder, cfg.Pipeline.Formats)

	service, err := transcription.NewService(cfg.TranscriptionSettings(), logger)
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.New(cfg.Pipeline.Workers, cfg.Policy(), logger)
	if err != nil {
		return nil, err
	}

	return New(Options{
		InputDir:      cfg.Pipeline.InputDir,
		OutputDir:     cfg.Pipeline.OutputDir,
		ChunkLengthMs: cfg.ChunkLength(),
		Model:         cfg.Transcription.Model,
	}, loader, service, sched, logger)
}
