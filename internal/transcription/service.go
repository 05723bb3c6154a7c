package transcription

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// Service is the remote (or local) speech-to-text capability.
// Implementations make a single attempt and must be safe for concurrent use.
type Service interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ProviderWhisperCLI selects the local Python Whisper backend.
const ProviderWhisperCLI = "whisper_cli"

// Settings picks a backend and carries its parameters.
type Settings struct {
	OpenAIConfig

	// Local whisper only
	Python   string
	Language string
}

// NewService builds the Service named by s.Provider.
func NewService(s Settings, logger *zap.SugaredLogger) (Service, error) {
	switch strings.ToLower(s.Provider) {
	case "", ProviderOpenAI, ProviderAzure:
		return NewOpenAIService(s.OpenAIConfig)
	case ProviderWhisperCLI:
		return NewWhisperCLIService(s.Python, s.Model, s.Language, logger), nil
	default:
		return nil, fmt.Errorf("%w: provider %q not supported", types.ErrConfig, s.Provider)
	}
}
