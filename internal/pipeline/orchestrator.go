package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DinuPhan/MRE-Rag/internal/chunker"
	"github.com/DinuPhan/MRE-Rag/internal/config"
	"github.com/DinuPhan/MRE-Rag/internal/contextgen"
	"github.com/DinuPhan/MRE-Rag/internal/crawler"
	"github.com/DinuPhan/MRE-Rag/internal/document"
	"github.com/DinuPhan/MRE-Rag/internal/embeddings"
	"github.com/DinuPhan/MRE-Rag/internal/qdrant"
)

// Orchestrator manages the ingestion worker pool and serves queries.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	embedder embeddings.Provider
	store    *qdrant.Client
	titles   *contextgen.GeminiClient
	stats    *contextgen.LLMStats
	crawler  *crawler.Crawler
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. The title client may be nil when
// contextual AI is disabled.
func NewOrchestrator(cfg config.Config, embedder embeddings.Provider, store *qdrant.Client, titles *contextgen.GeminiClient, cr *crawler.Crawler, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		embedder: embedder,
		store:    store,
		titles:   titles,
		stats:    contextgen.NewLLMStats(time.Hour),
		crawler:  cr,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.embedder, o.store, o.titles, o.stats, o.crawler, chunker.New(o.cfg.ChunkSize), o.log, o.cfg.MinCodeLength, o.cfg.MaxConcurrentLLM, o.cfg.EmbeddingBatchSize)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the vector store client for direct use by API handlers.
func (o *Orchestrator) Store() *qdrant.Client {
	return o.store
}

// LLMStats returns the title generation stats tracker.
func (o *Orchestrator) LLMStats() *contextgen.LLMStats {
	return o.stats
}

// Query embeds the text and searches the store. With a target URL the search
// is scoped to that URL's collection (or its code sibling for code search);
// without one it fans out across every collection.
func (o *Orchestrator) Query(ctx context.Context, text, targetURL string, limit int, codeSearch bool) ([]document.SearchResult, error) {
	queryText := text
	if codeSearch {
		queryText = fmt.Sprintf("Code example for %s\n\nSummary: Example code showing %s", text, text)
	}

	vector, err := o.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if targetURL == "" {
		return o.store.SearchAll(ctx, vector, limit)
	}
	collection := qdrant.EscapeCollectionName(targetURL)
	if codeSearch {
		return o.store.SearchCode(ctx, collection, vector, limit)
	}
	return o.store.Search(ctx, collection, vector, limit)
}
