package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/DinuPhan/MRE-Rag/internal/parser"
	"github.com/DinuPhan/MRE-Rag/internal/pipeline"
	"github.com/DinuPhan/MRE-Rag/internal/qdrant"
	"github.com/go-chi/chi/v5"
)

type crawlRequest struct {
	URL                string `json:"url"`
	Collection         string `json:"collection"`
	MaxDepth           int    `json:"max_depth"`
	MaxPages           int    `json:"max_pages"`
	EnableContextualAI *bool  `json:"enable_contextual_ai"`
}

// handleCrawl starts an asynchronous crawl-and-ingest job for a URL,
// sitemap, or llms.txt target.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		jsonError(w, "url must be http or https", http.StatusBadRequest)
		return
	}

	maxDepth := req.MaxDepth
	if maxDepth < 0 {
		maxDepth = 0
	}
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = s.cfg.MaxCrawlPages
	}
	contextualAI := s.cfg.EnableContextualAI
	if req.EnableContextualAI != nil {
		contextualAI = *req.EnableContextualAI
	}

	job := pipeline.NewCrawlJob(req.URL, req.Collection, maxDepth, maxPages, contextualAI)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/crawl/%s/status", job.ID),
	})
}

// handleIngest accepts a multipart file upload and queues it for ingestion.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	collection := r.FormValue("collection")
	if collection == "" {
		collection = qdrant.EscapeCollectionName(filename)
	}
	contextualAI := s.cfg.EnableContextualAI
	if v := r.FormValue("enable_contextual_ai"); v != "" {
		contextualAI = v == "true"
	}

	job := pipeline.NewUploadJob(filename, data, collection, contextualAI)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":     job.ID,
		"collection": job.Collection,
		"status":     job.Status,
		"poll_url":   fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

// handleJobStatus reports progress for a crawl or upload job.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":     snap.ID,
		"source":     snap.Source,
		"collection": snap.Collection,
		"status":     snap.Status,
		"phase":      snap.Phase,
		"progress":   snap.Progress,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
