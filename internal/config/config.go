// Package config loads the YAML configuration shared by the server and CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/recap"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// DefaultPath is where the binaries look for their config file.
const DefaultPath = "config/config.yaml"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Transcription struct {
		Provider       string `yaml:"provider"`
		Model          string `yaml:"model"`
		BaseURL        string `yaml:"base_url"`
		APIVersion     string `yaml:"api_version"`
		APIKeyEnv      string `yaml:"api_key_env"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Python         string `yaml:"python"`
		Language       string `yaml:"language"`
	} `yaml:"transcription"`

	Pipeline struct {
		InputDir     string   `yaml:"input_dir"`
		OutputDir    string   `yaml:"output_dir"`
		ChunkMinutes int      `yaml:"chunk_minutes"`
		Workers      int      `yaml:"workers"`
		Policy       string   `yaml:"policy"`
		Formats      []string `yaml:"formats"`
		FFmpegPath   string   `yaml:"ffmpeg_path"`
	} `yaml:"pipeline"`

	Jobs struct {
		Workers   int `yaml:"workers"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"jobs"`

	Storage struct {
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`

	Recap struct {
		Enabled     bool    `yaml:"enabled"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"recap"`

	Log struct {
		Debug bool `yaml:"debug"`
	} `yaml:"log"`
}

// Default returns a config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, fills defaults and validates the result.
// A .env file in the working directory, if present, is loaded into the
// environment first so API keys can live there.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %v", types.ErrConfig, err)
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrConfig, path, err)
	}
	return Parse(file)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", types.ErrConfig, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = transcription.ProviderOpenAI
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-1"
	}
	if c.Transcription.APIKeyEnv == "" {
		c.Transcription.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = 300
	}

	if c.Pipeline.InputDir == "" {
		c.Pipeline.InputDir = "data/input"
	}
	if c.Pipeline.OutputDir == "" {
		c.Pipeline.OutputDir = "data/output"
	}
	if c.Pipeline.ChunkMinutes == 0 {
		c.Pipeline.ChunkMinutes = 10
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = scheduler.DefaultConcurrency
	}
	if c.Pipeline.Policy == "" {
		c.Pipeline.Policy = scheduler.FailFast.String()
	}
	if c.Pipeline.Formats == nil {
		c.Pipeline.Formats = append([]string(nil), audio.DefaultFormats...)
	}
	if c.Pipeline.FFmpegPath == "" {
		c.Pipeline.FFmpegPath = "ffmpeg"
	}

	if c.Jobs.Workers == 0 {
		c.Jobs.Workers = 2
	}
	if c.Jobs.QueueSize == 0 {
		c.Jobs.QueueSize = 100
	}

	if c.Storage.Database == "" {
		c.Storage.Database = "data/transcripts.db"
	}

	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}

	if c.GoogleDrive.CredentialsFile == "" {
		c.GoogleDrive.CredentialsFile = "config/credentials.json"
	}
	if c.GoogleDrive.TokenFile == "" {
		c.GoogleDrive.TokenFile = "config/token.json"
	}
	if c.GoogleDrive.FolderName == "" {
		c.GoogleDrive.FolderName = "Transcripts"
	}

	if c.Limits.MaxFileSizeMB == 0 {
		c.Limits.MaxFileSizeMB = 500
	}

	if c.Recap.Model == "" {
		c.Recap.Model = "gpt-4o"
	}
	if c.Recap.MaxTokens == 0 {
		c.Recap.MaxTokens = 4096
	}
	if c.Recap.Temperature == 0 {
		c.Recap.Temperature = 0.1
	}
}

// Validate checks the values the pipeline depends on.
func (c *Config) Validate() error {
	var problems []string

	if c.Pipeline.ChunkMinutes <= 0 {
		problems = append(problems, fmt.Sprintf("pipeline.chunk_minutes must be positive, got %d", c.Pipeline.ChunkMinutes))
	}
	if c.Pipeline.Workers <= 0 {
		problems = append(problems, fmt.Sprintf("pipeline.workers must be positive, got %d", c.Pipeline.Workers))
	}
	if len(c.Pipeline.Formats) == 0 {
		problems = append(problems, "pipeline.formats must not be empty")
	}
	if _, err := scheduler.ParsePolicy(c.Pipeline.Policy); err != nil {
		problems = append(problems, fmt.Sprintf("pipeline.policy %q is not fail_fast or collect_all", c.Pipeline.Policy))
	}
	switch strings.ToLower(c.Transcription.Provider) {
	case transcription.ProviderOpenAI, transcription.ProviderWhisperCLI:
	case transcription.ProviderAzure:
		if c.Transcription.BaseURL == "" {
			problems = append(problems, "transcription.base_url is required for azure")
		}
	default:
		problems = append(problems, fmt.Sprintf("transcription.provider %q not supported", c.Transcription.Provider))
	}
	if c.Transcription.TimeoutSeconds < 0 {
		problems = append(problems, "transcription.timeout_seconds must not be negative")
	}
	if c.Jobs.Workers <= 0 || c.Jobs.QueueSize <= 0 {
		problems = append(problems, "jobs.workers and jobs.queue_size must be positive")
	}
	if c.Cleanup.IntervalMinutes <= 0 || c.Cleanup.MaxAgeHours <= 0 {
		problems = append(problems, "cleanup.interval_minutes and cleanup.max_age_hours must be positive")
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		problems = append(problems, fmt.Sprintf("limits.max_file_size_mb must be positive, got %d", c.Limits.MaxFileSizeMB))
	}
	if c.Recap.MaxTokens <= 0 {
		problems = append(problems, fmt.Sprintf("recap.max_tokens must be positive, got %d", c.Recap.MaxTokens))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", types.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ChunkLength returns the configured chunk length in milliseconds.
func (c *Config) ChunkLength() int64 {
	return int64(c.Pipeline.ChunkMinutes) * 60 * 1000
}

// Policy returns the parsed failure policy. Validate has already vetted it.
func (c *Config) Policy() scheduler.Policy {
	p, _ := scheduler.ParsePolicy(c.Pipeline.Policy)
	return p
}

// APIKey reads the transcription API key from the configured variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Transcription.APIKeyEnv)
}

// TranscriptionSettings assembles the backend settings.
func (c *Config) TranscriptionSettings() transcription.Settings {
	return transcription.Settings{
		OpenAIConfig: transcription.OpenAIConfig{
			Provider:   c.Transcription.Provider,
			APIKey:     c.APIKey(),
			BaseURL:    c.Transcription.BaseURL,
			APIVersion: c.Transcription.APIVersion,
			Model:      c.Transcription.Model,
			Timeout:    time.Duration(c.Transcription.TimeoutSeconds) * time.Second,
		},
		Python:   c.Transcription.Python,
		Language: c.Transcription.Language,
	}
}

// RecapConfig assembles the chat model settings for recaps. The recap shares
// the transcription API key; a custom base URL only carries over for the
// plain OpenAI provider.
func (c *Config) RecapConfig() recap.Config {
	rc := recap.Config{
		APIKey:      c.APIKey(),
		Model:       c.Recap.Model,
		MaxTokens:   c.Recap.MaxTokens,
		Temperature: c.Recap.Temperature,
		Timeout:     time.Duration(c.Transcription.TimeoutSeconds) * time.Second,
	}
	if strings.EqualFold(c.Transcription.Provider, transcription.ProviderOpenAI) {
		rc.BaseURL = c.Transcription.BaseURL
	}
	return rc
}

// Addr is the host:port the server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
