package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DinuPhan/MRE-Rag/internal/chunker"
	"github.com/DinuPhan/MRE-Rag/internal/contextgen"
	"github.com/DinuPhan/MRE-Rag/internal/embeddings"
	"github.com/DinuPhan/MRE-Rag/internal/qdrant"
)

// stubEmbedder returns fixed-size zero vectors without any network calls.
type stubEmbedder struct {
	dims int
}

func (s stubEmbedder) Name() string    { return "stub" }
func (s stubEmbedder) Dimensions() int { return s.dims }

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, s.dims), nil
}

func (s stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range vecs {
		vecs[i] = make([]float32, s.dims)
	}
	return vecs, nil
}

// fakeQdrant records upserted points per collection behind a Qdrant-shaped
// HTTP facade.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: make(map[string][]map[string]any)}
}

func (f *fakeQdrant) handler() http.Handler {
	mux := chi.NewRouter()
	mux.MethodFunc("GET", "/collections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		names := make([]string, 0, len(f.collections))
		for name := range f.collections {
			names = append(names, name)
		}
		payload := map[string]any{"result": map[string]any{"collections": []map[string]string{}}}
		cols := payload["result"].(map[string]any)["collections"].([]map[string]string)
		for _, n := range names {
			cols = append(cols, map[string]string{"name": n})
		}
		payload["result"].(map[string]any)["collections"] = cols
		json.NewEncoder(w).Encode(payload)
	})
	mux.MethodFunc("PUT", "/collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := chi.URLParam(r, "name")
		if _, ok := f.collections[name]; !ok {
			f.collections[name] = nil
		}
		fmt.Fprint(w, `{"result":true}`)
	})
	mux.MethodFunc("PUT", "/collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Points []struct {
				ID      string         `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		name := chi.URLParam(r, "name")
		for _, p := range req.Points {
			f.collections[name] = append(f.collections[name], p.Payload)
		}
		fmt.Fprint(w, `{"result":{"status":"completed"}}`)
	})
	return mux
}

func (f *fakeQdrant) points(collection string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections[collection]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const workerTestDoc = `# Install Guide

This section explains how to install the tool on a fresh machine using pip.

` + "```python\nimport subprocess\nsubprocess.run(['pip', 'install', 'mre-rag'], check=True)\n```" + `

After installation, verify the binary is on your PATH.
`

func TestWorker_ProcessUpload(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	w := NewWorker(
		stubEmbedder{dims: 4},
		qdrant.NewClient(srv.URL, "", 4),
		nil,
		contextgen.NewLLMStats(time.Hour),
		nil,
		chunker.New(1500),
		discardLogger(),
		50, 5, 100,
	)

	job := NewUploadJob("guide.md", []byte(workerTestDoc), "", false)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Collection != "guide_md" {
		t.Errorf("expected collection guide_md, got %q", snap.Collection)
	}
	if snap.Progress.Pages != 1 {
		t.Errorf("expected 1 page, got %d", snap.Progress.Pages)
	}
	if snap.Progress.ProseChunks == 0 {
		t.Error("expected prose chunks")
	}
	if snap.Progress.CodeSnippets != 1 {
		t.Errorf("expected 1 code snippet, got %d", snap.Progress.CodeSnippets)
	}
	if snap.ContentHash == "" {
		t.Error("expected content hash to be set")
	}

	prose := fake.points("guide_md")
	if len(prose) != snap.Progress.ProseChunks {
		t.Errorf("expected %d prose points, got %d", snap.Progress.ProseChunks, len(prose))
	}
	code := fake.points("guide_md_code")
	if len(code) != 1 {
		t.Fatalf("expected 1 code point, got %d", len(code))
	}
	if lang := code[0]["language"]; lang != "python" {
		t.Errorf("expected python language tag, got %v", lang)
	}
	raw, _ := code[0]["raw_code"].(string)
	if !strings.Contains(raw, "subprocess.run") {
		t.Errorf("expected raw code preserved, got %q", raw)
	}
	content, _ := code[0]["content"].(string)
	if !strings.HasPrefix(content, "Code Snippet:\n") {
		t.Errorf("expected untitled payload prefix, got %q", content)
	}
	if snap.Progress.VectorsStored != snap.Progress.ProseChunks+1 {
		t.Errorf("expected %d vectors stored, got %d", snap.Progress.ProseChunks+1, snap.Progress.VectorsStored)
	}
}

func TestWorker_ProcessUpload_ContextualTitles(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	titleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Example installing the tool with pip"}]}}]}`)
	}))
	defer titleSrv.Close()

	titles := contextgen.NewGeminiClient("key", "")
	titles.SetBaseURL(titleSrv.URL)

	stats := contextgen.NewLLMStats(time.Hour)
	w := NewWorker(
		stubEmbedder{dims: 4},
		qdrant.NewClient(srv.URL, "", 4),
		titles,
		stats,
		nil,
		chunker.New(1500),
		discardLogger(),
		50, 5, 100,
	)

	job := NewUploadJob("guide.md", []byte(workerTestDoc), "", true)
	w.Process(context.Background(), job)

	if status := job.Snapshot().Status; status != StatusCompleted {
		t.Fatalf("expected completed, got %q", status)
	}

	code := fake.points("guide_md_code")
	if len(code) != 1 {
		t.Fatalf("expected 1 code point, got %d", len(code))
	}
	content, _ := code[0]["content"].(string)
	if !strings.HasPrefix(content, "Title: Example installing the tool with pip\n\nCode Snippet:\n") {
		t.Errorf("expected titled payload, got %q", content)
	}
	if stats.Snapshot().Count != 1 {
		t.Errorf("expected 1 recorded title call, got %d", stats.Snapshot().Count)
	}
}

func TestWorker_ProcessUpload_UnsupportedFormat(t *testing.T) {
	w := NewWorker(
		stubEmbedder{dims: 4},
		nil,
		nil,
		contextgen.NewLLMStats(time.Hour),
		nil,
		chunker.New(1500),
		discardLogger(),
		50, 5, 100,
	)

	job := NewUploadJob("archive.zip", []byte("PK"), "", false)
	w.Process(context.Background(), job)

	if status := job.Snapshot().Status; status != StatusFailed {
		t.Fatalf("expected failed, got %q", status)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&embeddings.RetryableError{StatusCode: 429}) {
		t.Error("embedding 429 should be retryable")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", &contextgen.RetryableError{StatusCode: 503})) {
		t.Error("wrapped title 503 should be retryable")
	}
	if IsRetryable(errors.New("plain failure")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestBackoff_Bounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := Backoff(attempt)
		if d < time.Second {
			t.Errorf("attempt %d: backoff %v below base", attempt, d)
		}
		if d > 45*time.Second {
			t.Errorf("attempt %d: backoff %v above cap with jitter", attempt, d)
		}
	}
}
