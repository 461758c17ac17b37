// Package embeddings turns text into dense vectors via hosted embedding APIs.
package embeddings

import (
	"context"
	"fmt"
	"strings"
)

// Provider generates embedding vectors for text.
type Provider interface {
	// Name identifies the backing service.
	Name() string
	// Dimensions is the length of every vector this provider returns.
	Dimensions() int
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Settings selects and configures a provider.
type Settings struct {
	Provider   string // "gemini" (default) or "openai"
	APIKey     string
	Model      string // provider-specific default when empty
	BaseURL    string // provider-specific default when empty
	Dimensions int    // provider-specific default when 0
}

// New builds the provider named in settings.
func New(s Settings) (Provider, error) {
	switch strings.ToLower(s.Provider) {
	case "", "gemini", "google":
		return NewGeminiProvider(s), nil
	case "openai":
		return NewOpenAIProvider(s), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", s.Provider)
	}
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
