package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8051" {
		t.Errorf("expected default port 8051, got %q", cfg.Port)
	}
	if cfg.ChunkSize != 1500 {
		t.Errorf("expected chunk size 1500, got %d", cfg.ChunkSize)
	}
	if cfg.MinCodeLength != 50 {
		t.Errorf("expected min code length 50, got %d", cfg.MinCodeLength)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %v", cfg.JobTTL)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("expected output dir %q, got %q", "output", cfg.OutputDir)
	}
	if cfg.EmbeddingProvider != "gemini" {
		t.Errorf("expected gemini provider default, got %q", cfg.EmbeddingProvider)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("ENABLE_CONTEXTUAL_AI", "true")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.ChunkSize != 800 {
		t.Errorf("expected chunk size 800, got %d", cfg.ChunkSize)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.JobTTL)
	}
	if !cfg.EnableContextualAI {
		t.Error("expected contextual AI enabled")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("CHUNK_SIZE", "-5")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected fallback worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.ChunkSize != 1500 {
		t.Errorf("expected fallback chunk size 1500, got %d", cfg.ChunkSize)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{EmbeddingProvider: "gemini"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing MRE_API_KEY")
	}

	cfg.APIKey = "k"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing GEMINI_API_KEY")
	}

	cfg.GeminiAPIKey = "g"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	openai := Config{APIKey: "k", EmbeddingProvider: "openai"}
	if err := openai.Validate(); err == nil {
		t.Error("expected error for missing OPENAI_API_KEY")
	}
	openai.OpenAIAPIKey = "sk"
	if err := openai.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	unknown := Config{APIKey: "k", EmbeddingProvider: "cohere"}
	if err := unknown.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
}
