package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Qdrant connection
	QdrantURL    string
	QdrantAPIKey string

	// Auth
	APIKey string

	// Gemini (embeddings default + code snippet titles)
	GeminiAPIKey string
	GeminiModel  string

	// Embeddings
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingDimensions int
	OpenAIAPIKey        string
	OpenAIBaseURL       string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentLLM   int
	EmbeddingBatchSize int

	// Upload limits
	MaxUploadBytes int64

	// Chunking
	ChunkSize     int
	MinCodeLength int

	// Crawling
	MaxCrawlDepth int
	MaxCrawlPages int
	OutputDir     string

	// Contextual retrieval
	EnableContextualAI bool

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8051"),

		QdrantURL:    envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),

		APIKey: os.Getenv("MRE_API_KEY"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.5-flash"),

		EmbeddingProvider:   envOr("EMBEDDING_PROVIDER", "gemini"),
		EmbeddingModel:      os.Getenv("EMBEDDING_MODEL"),
		EmbeddingDimensions: envInt("EMBEDDING_DIMENSIONS", 0),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentLLM:   envInt("MAX_CONCURRENT_LLM", 5),
		EmbeddingBatchSize: envInt("EMBEDDING_BATCH_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkSize:     envInt("CHUNK_SIZE", 1500),
		MinCodeLength: envInt("MIN_CODE_LENGTH", 50),

		MaxCrawlDepth: envInt("MAX_CRAWL_DEPTH", 1),
		MaxCrawlPages: envInt("MAX_CRAWL_PAGES", 10),
		OutputDir:     envOr("OUTPUT_DIR", "output"),

		EnableContextualAI: envBool("ENABLE_CONTEXTUAL_AI", false),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentLLM <= 0 {
		cfg.MaxConcurrentLLM = 5
	}
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.MinCodeLength < 0 {
		cfg.MinCodeLength = 50
	}
	if cfg.MaxCrawlPages <= 0 {
		cfg.MaxCrawlPages = 10
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MRE_API_KEY is required")
	}
	switch c.EmbeddingProvider {
	case "gemini", "google", "":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini embedding provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	if c.EnableContextualAI && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when ENABLE_CONTEXTUAL_AI is on")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
