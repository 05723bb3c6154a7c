package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// WhisperCLIService runs the local Python Whisper package on each file.
// Every call gets its own output directory, so calls may run concurrently.
type WhisperCLIService struct {
	python    string
	modelName string
	language  string
	logger    *zap.SugaredLogger
}

// NewWhisperCLIService creates a transcriber using `python -m whisper`
func NewWhisperCLIService(python, modelName, language string, logger *zap.SugaredLogger) *WhisperCLIService {
	if python == "" {
		python = "python"
	}
	if modelName == "" {
		modelName = "small"
	}

	logger.Infow("Initializing local Whisper", "model", modelName, "python", python)

	return &WhisperCLIService{
		python:    python,
		modelName: modelName,
		language:  language,
		logger:    logger,
	}
}

// Transcribe processes an audio file and returns the transcript text
func (ws *WhisperCLIService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	outputDir, err := os.MkdirTemp("", "whisper-output-*")
	if err != nil {
		return "", fmt.Errorf("%w: create whisper output dir: %v", types.ErrTranscriptionService, err)
	}
	defer os.RemoveAll(outputDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", types.ErrTranscriptionService, audioPath, err)
	}

	args := []string{"-m", "whisper",
		absAudioPath,
		"--model", ws.modelName,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--fp16", "False", // CPU compatibility
	}
	if ws.language != "" {
		args = append(args, "--language", ws.language)
	}

	output, err := exec.CommandContext(ctx, ws.python, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: whisper failed: %v\nOutput: %s", types.ErrTranscriptionService, err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonData, err := os.ReadFile(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return "", fmt.Errorf("%w: read whisper output: %v", types.ErrTranscriptionService, err)
	}

	text, err := parseWhisperOutput(jsonData)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrTranscriptionService, err)
	}

	ws.logger.Debugw("Local whisper finished", "file", filepath.Base(audioPath), "chars", len(text))
	return text, nil
}

// whisperOutput matches Python Whisper's JSON output format
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func parseWhisperOutput(data []byte) (string, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parse whisper JSON: %v", err)
	}
	if text := strings.TrimSpace(out.Text); text != "" {
		return text, nil
	}

	// Older releases leave the top-level text empty; rebuild from segments.
	parts := make([]string, 0, len(out.Segments))
	for _, seg := range out.Segments {
		if s := strings.TrimSpace(seg.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
