package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DinuPhan/MRE-Rag/internal/chunker"
	"github.com/DinuPhan/MRE-Rag/internal/contextgen"
	"github.com/DinuPhan/MRE-Rag/internal/crawler"
	"github.com/DinuPhan/MRE-Rag/internal/document"
	"github.com/DinuPhan/MRE-Rag/internal/embeddings"
	"github.com/DinuPhan/MRE-Rag/internal/parser"
	"github.com/DinuPhan/MRE-Rag/internal/qdrant"
)

// Worker processes a single ingestion job end to end.
type Worker struct {
	embedder embeddings.Provider
	store    *qdrant.Client
	titles   *contextgen.GeminiClient
	stats    *contextgen.LLMStats
	crawler  *crawler.Crawler
	chunks   *chunker.Chunker
	log      *slog.Logger

	minCodeLength    int
	maxConcurrentLLM int
	batchSize        int
}

func NewWorker(embedder embeddings.Provider, store *qdrant.Client, titles *contextgen.GeminiClient, stats *contextgen.LLMStats, cr *crawler.Crawler, chunks *chunker.Chunker, log *slog.Logger, minCodeLength, maxConcurrentLLM, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxConcurrentLLM <= 0 {
		maxConcurrentLLM = 5
	}
	return &Worker{
		embedder:         embedder,
		store:            store,
		titles:           titles,
		stats:            stats,
		crawler:          cr,
		chunks:           chunks,
		log:              log,
		minCodeLength:    minCodeLength,
		maxConcurrentLLM: maxConcurrentLLM,
		batchSize:        batchSize,
	}
}

type codeItem struct {
	payload       document.CodePayload
	contextBefore string
	contextAfter  string
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.Source)

	// Phase 1: fetch content, from the web or from the uploaded file.
	job.SetStatus(StatusFetching, "fetching")
	docs, err := w.fetchDocuments(ctx, job)
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.AddError(fmt.Sprintf("fetch: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}
	job.SetPages(len(docs))

	collection := job.Collection
	if collection == "" {
		collection = qdrant.EscapeCollectionName(job.Source)
	}
	job.SetCollection(collection)

	var hashBuf bytes.Buffer
	for _, doc := range docs {
		hashBuf.WriteString(doc.Markdown)
	}
	job.ContentHash = ContentHashHex(hashBuf.Bytes())

	// Phase 2: chunk prose and extract code blocks from every page.
	job.SetStatus(StatusChunking, "chunking")
	var prose []document.ChunkPayload
	var code []codeItem
	for _, doc := range docs {
		for i, text := range w.chunks.ChunkText(doc.Markdown) {
			prose = append(prose, document.ChunkPayload{
				URL:        doc.URL,
				Title:      doc.Title,
				ChunkIndex: i,
				Content:    text,
			})
		}
		for i, block := range chunker.ExtractCodeBlocks(doc.Markdown, w.minCodeLength) {
			code = append(code, codeItem{
				payload: document.CodePayload{
					URL:       doc.URL,
					Title:     doc.Title,
					CodeIndex: i,
					Language:  block.Language,
					RawCode:   block.Code,
					Content:   "Code Snippet:\n" + block.Code,
				},
				contextBefore: block.ContextBefore,
				contextAfter:  block.ContextAfter,
			})
		}
	}
	job.SetCounts(len(prose), len(code))
	log.Info("chunked content", "pages", len(docs), "prose_chunks", len(prose), "code_snippets", len(code))

	if len(prose) == 0 {
		job.AddError("no text content to chunk")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	hadErrors := false

	// Phase 3: give code snippets AI titles so their embeddings carry the
	// surrounding prose context.
	if job.contextualAI && w.titles != nil && len(code) > 0 {
		job.SetStatus(StatusAnnotating, "annotating")
		w.annotateCode(ctx, code, log)
	}

	// Phase 4: embed prose and code payloads in batches.
	job.SetStatus(StatusEmbedding, "embedding")
	proseTexts := make([]string, len(prose))
	for i, p := range prose {
		proseTexts[i] = p.Content
	}
	proseVecs, err := w.embedAll(ctx, proseTexts)
	if err != nil {
		log.Error("prose embedding failed", "error", err)
		job.AddError(fmt.Sprintf("embed prose: %s", err))
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	var codeVecs [][]float32
	if len(code) > 0 {
		codeTexts := make([]string, len(code))
		for i, item := range code {
			codeTexts[i] = item.payload.Content
		}
		codeVecs, err = w.embedAll(ctx, codeTexts)
		if err != nil {
			log.Error("code embedding failed", "error", err)
			job.AddError(fmt.Sprintf("embed code: %s", err))
			hadErrors = true
			codeVecs = nil
		}
	}

	// Phase 5: upsert into the prose collection and its code sibling.
	job.SetStatus(StatusStoring, "storing")
	prosePoints := make([]qdrant.Point, len(prose))
	for i, p := range prose {
		prosePoints[i] = qdrant.Point{
			ID:      qdrant.PointID(p.URL, i),
			Vector:  proseVecs[i],
			Payload: p.Map(),
		}
	}
	storedAny := false
	if err := w.store.UpsertPoints(ctx, collection, prosePoints); err != nil {
		log.Error("prose upsert failed", "error", err)
		job.AddError(fmt.Sprintf("store prose: %s", err))
		hadErrors = true
	} else {
		job.AddVectorsStored(len(prosePoints))
		storedAny = true
	}

	if len(codeVecs) == len(code) && len(code) > 0 {
		codePoints := make([]qdrant.Point, len(code))
		for i, item := range code {
			codePoints[i] = qdrant.Point{
				ID:      qdrant.PointID(item.payload.URL, i),
				Vector:  codeVecs[i],
				Payload: item.payload.Map(),
			}
		}
		if err := w.store.UpsertPoints(ctx, qdrant.CodeCollectionName(collection), codePoints); err != nil {
			log.Error("code upsert failed", "error", err)
			job.AddError(fmt.Sprintf("store code: %s", err))
			hadErrors = true
		} else {
			job.AddVectorsStored(len(codePoints))
			storedAny = true
		}
	}

	switch {
	case hadErrors && storedAny:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "storing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("ingestion finished", "status", job.Snapshot().Status, "vectors", job.Snapshot().Progress.VectorsStored)
}

// fetchDocuments resolves the job into Markdown documents, crawling for URL
// jobs and parsing the uploaded file otherwise.
func (w *Worker) fetchDocuments(ctx context.Context, job *Job) ([]document.Document, error) {
	if job.url != "" {
		return w.crawler.Crawl(ctx, job.url, crawler.Options{
			MaxDepth: job.maxDepth,
			MaxPages: job.maxPages,
		})
	}

	p, err := parser.ForFile(job.filename)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(job.fileData), job.filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if doc.URL == "" {
		doc.URL = "upload://" + job.filename
	}
	return []document.Document{*doc}, nil
}

// annotateCode titles each snippet with bounded concurrency. Failures fall
// back to the generic title rather than failing the job.
func (w *Worker) annotateCode(ctx context.Context, code []codeItem, log *slog.Logger) {
	sem := make(chan struct{}, w.maxConcurrentLLM)
	done := make(chan struct{}, len(code))

	for i := range code {
		sem <- struct{}{}
		go func(item *codeItem) {
			defer func() { <-sem; done <- struct{}{} }()

			title := contextgen.FallbackTitle
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				start := time.Now()
				var generated string
				generated, lastErr = w.titles.GenerateCodeTitle(ctx, item.payload.RawCode, item.contextBefore, item.contextAfter)
				if lastErr == nil {
					w.stats.RecordSuccess(time.Since(start).Milliseconds())
					title = generated
					break
				}
				w.stats.RecordFailure()
				if !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable title error", "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					return
				}
			}
			if lastErr != nil {
				w.stats.RecordFallback()
				log.Warn("title generation failed, using fallback", "url", item.payload.URL, "error", lastErr)
			}
			item.payload.Content = "Title: " + title + "\n\nCode Snippet:\n" + item.payload.RawCode
		}(&code[i])
	}
	for range code {
		<-done
	}
}

// embedAll runs batches through the provider with bounded concurrency,
// keeping vector order aligned with the input texts.
func (w *Worker) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	type batchResult struct {
		start int
		vecs  [][]float32
		err   error
	}
	var batches int
	for start := 0; start < len(texts); start += w.batchSize {
		batches++
	}

	results := make(chan batchResult, batches)
	sem := make(chan struct{}, w.maxConcurrentLLM)

	for start := 0; start < len(texts); start += w.batchSize {
		end := min(start+w.batchSize, len(texts))
		sem <- struct{}{}
		go func(start int, batch []string) {
			defer func() { <-sem }()
			var vecs [][]float32
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				vecs, lastErr = w.embedder.EmbedBatch(ctx, batch)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- batchResult{start: start, err: ctx.Err()}
					return
				}
			}
			results <- batchResult{start: start, vecs: vecs, err: lastErr}
		}(start, texts[start:end])
	}

	vectors := make([][]float32, len(texts))
	for i := 0; i < batches; i++ {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		copy(vectors[r.start:], r.vecs)
	}
	return vectors, nil
}
