package transcription

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// Provider names accepted by NewOpenAIService
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

// OpenAIConfig configures the hosted Whisper backend.
type OpenAIConfig struct {
	Provider   string
	APIKey     string
	BaseURL    string // Required for Azure; optional override for OpenAI-compatible gateways.
	APIVersion string // Azure only.
	Model      string
	Timeout    time.Duration
}

// OpenAIService transcribes audio through the OpenAI (or Azure OpenAI) audio API
type OpenAIService struct {
	client *openai.Client
	model  string
}

// NewOpenAIService builds a client for the configured provider.
func NewOpenAIService(cfg OpenAIConfig) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key for provider %q", types.ErrConfig, cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	var clientCfg openai.ClientConfig
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	case ProviderAzure:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: azure provider requires base_url", types.ErrConfig)
		}
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
	default:
		return nil, fmt.Errorf("%w: provider %q not supported", types.ErrConfig, cfg.Provider)
	}

	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Transcribe uploads the file at audioPath and returns the recognized text
func (s *OpenAIService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscriptionService, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
