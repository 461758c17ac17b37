package api

import (
	"encoding/json"
	"net/http"

	"github.com/DinuPhan/MRE-Rag/internal/qdrant"
	"github.com/go-chi/chi/v5"
)

// handleListCollections lists every collection in the vector store.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.orchestrator.Store().ListCollections(r.Context())
	if err != nil {
		jsonError(w, "failed to list collections: "+err.Error(), http.StatusBadGateway)
		return
	}
	if names == nil {
		names = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"collections": names})
}

// handleDeleteCollection drops a collection and its code sibling.
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		jsonError(w, "collection name is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	store := s.orchestrator.Store()

	if err := store.DeleteCollection(ctx, name); err != nil {
		jsonError(w, "failed to delete collection: "+err.Error(), http.StatusBadGateway)
		return
	}

	// The code sibling may not exist; its deletion failing is not fatal.
	codeDeleted := true
	if err := store.DeleteCollection(ctx, qdrant.CodeCollectionName(name)); err != nil {
		codeDeleted = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"deleted":              name,
		"code_sibling_deleted": codeDeleted,
	})
}
