package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DinuPhan/MRE-Rag/internal/api"
	"github.com/DinuPhan/MRE-Rag/internal/config"
	"github.com/DinuPhan/MRE-Rag/internal/contextgen"
	"github.com/DinuPhan/MRE-Rag/internal/crawler"
	"github.com/DinuPhan/MRE-Rag/internal/embeddings"
	"github.com/DinuPhan/MRE-Rag/internal/pipeline"
	"github.com/DinuPhan/MRE-Rag/internal/qdrant"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	embedder, err := embeddings.New(embeddings.Settings{
		Provider:   cfg.EmbeddingProvider,
		APIKey:     embeddingAPIKey(cfg),
		Model:      cfg.EmbeddingModel,
		BaseURL:    cfg.OpenAIBaseURL,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		log.Error("embedding provider setup failed", "error", err)
		os.Exit(1)
	}

	store := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantAPIKey, embedder.Dimensions())

	var titles *contextgen.GeminiClient
	if cfg.GeminiAPIKey != "" {
		titles = contextgen.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	cr := crawler.New(cfg.OutputDir, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, embedder, store, titles, cr, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		store.Close()
		if titles != nil {
			titles.Close()
		}
	}()

	log.Info("starting mre-rag", "port", cfg.Port, "embedding_provider", embedder.Name(), "dimensions", embedder.Dimensions())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func embeddingAPIKey(cfg config.Config) string {
	if cfg.EmbeddingProvider == "openai" {
		return cfg.OpenAIAPIKey
	}
	return cfg.GeminiAPIKey
}
