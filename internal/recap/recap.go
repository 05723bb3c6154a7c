// Package recap produces a Markdown meeting recap from a finished transcript.
package recap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// Summarizer turns transcript text into a recap.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Config configures the chat model used for recaps
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// OpenAISummarizer asks a chat completion model for the recap
type OpenAISummarizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAISummarizer creates a summarizer. Model defaults to gpt-4o.
func NewOpenAISummarizer(cfg Config) (*OpenAISummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key for recap", types.ErrConfig)
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4o
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAISummarizer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Summarize sends the transcript and returns the model's Markdown.
func (s *OpenAISummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(userPromptTemplate, transcript),
			},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("recap request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// WriteRecap summarizes the transcript at transcriptPath and writes the recap
// next to it as <stem>.md, returning that path.
func WriteRecap(ctx context.Context, s Summarizer, transcriptPath string) (string, error) {
	text, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	if strings.TrimSpace(string(text)) == "" {
		return "", errors.New("transcript is empty, nothing to summarize")
	}

	md, err := s.Summarize(ctx, string(text))
	if err != nil {
		return "", err
	}

	path := storage.RecapPath(transcriptPath)
	if err := storage.WriteFileAtomic(path, []byte(md+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to save recap: %w", err)
	}
	return path, nil
}
