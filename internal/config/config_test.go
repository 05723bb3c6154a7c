package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("explicit port lost: %d", cfg.Server.Port)
	}
	if cfg.Pipeline.InputDir != "data/input" || cfg.Pipeline.OutputDir != "data/output" {
		t.Errorf("unexpected dirs %q %q", cfg.Pipeline.InputDir, cfg.Pipeline.OutputDir)
	}
	if cfg.Pipeline.Workers != 3 || cfg.ChunkLength() != 10*60*1000 {
		t.Errorf("unexpected workers %d / chunk %d", cfg.Pipeline.Workers, cfg.ChunkLength())
	}
	if cfg.Policy() != scheduler.FailFast {
		t.Errorf("fail-fast must be the default policy")
	}
	if len(cfg.Pipeline.Formats) != 5 {
		t.Errorf("expected the five default formats, got %v", cfg.Pipeline.Formats)
	}
	if cfg.Transcription.Model != "whisper-1" || cfg.Transcription.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("unexpected transcription defaults %+v", cfg.Transcription)
	}
}

func TestParseOverrides(t *testing.T) {
	yml := `
pipeline:
  input_dir: in
  output_dir: out
  chunk_minutes: 5
  workers: 8
  policy: collect_all
  formats: [wav]
transcription:
  provider: azure
  base_url: https://example.openai.azure.com
  timeout_seconds: 60
`
	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ChunkLength() != 5*60*1000 || cfg.Pipeline.Workers != 8 {
		t.Errorf("overrides lost: %+v", cfg.Pipeline)
	}
	if cfg.Policy() != scheduler.CollectAll {
		t.Errorf("expected collect_all policy")
	}
	if len(cfg.Pipeline.Formats) != 1 || cfg.Pipeline.Formats[0] != "wav" {
		t.Errorf("expected only wav, got %v", cfg.Pipeline.Formats)
	}

	s := cfg.TranscriptionSettings()
	if s.Provider != "azure" || s.BaseURL == "" || s.Timeout != time.Minute {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative chunk":          "pipeline:\n  chunk_minutes: -1\n",
		"negative workers":        "pipeline:\n  workers: -3\n",
		"bad policy":              "pipeline:\n  policy: retry\n",
		"bad provider":            "transcription:\n  provider: carrier-pigeon\n",
		"azure no url":            "transcription:\n  provider: azure\n",
		"broken yaml":             "pipeline: [\n",
		"negative sweep interval": "cleanup:\n  interval_minutes: -5\n",
		"negative max age":        "cleanup:\n  max_age_hours: -1\n",
		"negative upload limit":   "limits:\n  max_file_size_mb: -10\n",
		"negative recap tokens":   "recap:\n  max_tokens: -1\n",
	}
	for name, yml := range cases {
		if _, err := Parse([]byte(yml)); !errors.Is(err, types.ErrConfig) {
			t.Errorf("%s: expected ErrConfig, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, types.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestAPIKeyFromConfiguredEnv(t *testing.T) {
	t.Setenv("TRANSCRIBER_TEST_KEY", "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("transcription:\n  api_key_env: TRANSCRIBER_TEST_KEY\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey() != "sk-test" || cfg.TranscriptionSettings().APIKey != "sk-test" {
		t.Errorf("expected key from TRANSCRIBER_TEST_KEY, got %q", cfg.APIKey())
	}
}

func TestRecapConfig(t *testing.T) {
	t.Setenv("TEST_RECAP_KEY", "sk-recap")
	cfg, err := Parse([]byte("transcription:\n  provider: azure\n  base_url: https://example.openai.azure.com\n  api_key_env: TEST_RECAP_KEY\nrecap:\n  enabled: true\n  max_tokens: 512\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rc := cfg.RecapConfig()
	if rc.APIKey != "sk-recap" || rc.Model != "gpt-4o" || rc.MaxTokens != 512 {
		t.Errorf("unexpected recap config %+v", rc)
	}
	if rc.BaseURL != "" {
		t.Errorf("azure base url must not leak into the recap client, got %q", rc.BaseURL)
	}
	if rc.Timeout != 300*time.Second {
		t.Errorf("expected transcription timeout, got %v", rc.Timeout)
	}
}
