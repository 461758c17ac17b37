package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/DinuPhan/MRE-Rag/internal/document"
)

type queryRequest struct {
	Query      string `json:"query"`
	URL        string `json:"url"`
	Limit      int    `json:"limit"`
	CodeSearch bool   `json:"code_search"`
}

// handleQuery embeds the query text and searches the vector store
// synchronously.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	results, err := s.orchestrator.Query(r.Context(), req.Query, req.URL, limit, req.CodeSearch)
	if err != nil {
		s.log.Error("query failed", "error", err)
		jsonError(w, "query failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	if results == nil {
		results = []document.SearchResult{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":       req.Query,
		"code_search": req.CodeSearch,
		"results":     results,
	})
}
