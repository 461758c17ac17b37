// Package qdrant is a minimal REST client for the Qdrant vector database,
// covering the collection and point operations the ingestion pipeline needs.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/DinuPhan/MRE-Rag/internal/document"
)

// Client communicates with the Qdrant HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	vectorSize int
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, vectorSize int) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		vectorSize: vectorSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Point is a single vector with its payload, ready for upsert.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// ListCollections returns the names of all collections.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("list collections", resp)
	}

	var result struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode collections: %w", err)
	}

	names := make([]string, 0, len(result.Result.Collections))
	for _, col := range result.Result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// EnsureCollection creates the collection with a cosine-distance vector
// index if it does not already exist.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	existing, err := c.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, n := range existing {
		if n == name {
			return nil
		}
	}

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     c.vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal collection config: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/collections/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer resp.Body.Close()
	// 409 means another writer created it between the list and the put.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return c.statusError("create collection "+name, resp)
	}
	return nil
}

// UpsertPoints writes points into the collection, creating it if needed.
func (c *Client) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/collections/"+collection+"/points?wait=true", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError("upsert points into "+collection, resp)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search runs a vector similarity query against one collection. The raw
// chunk text comes back in Content; the remaining payload goes in Metadata.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]document.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	body, err := json.Marshal(map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collections/"+collection+"/points/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("search "+collection, resp)
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	results := make([]document.SearchResult, 0, len(apiResp.Result))
	for _, hit := range apiResp.Result {
		content, _ := hit.Payload["content"].(string)
		metadata := make(map[string]any, len(hit.Payload))
		for k, v := range hit.Payload {
			if k != "content" {
				metadata[k] = v
			}
		}
		results = append(results, document.SearchResult{
			ID:       fmt.Sprintf("%v", hit.ID),
			Score:    hit.Score,
			Content:  content,
			Metadata: metadata,
		})
	}
	return results, nil
}

// SearchAll queries every collection and merges the hits by score, keeping
// the overall top results.
func (c *Client) SearchAll(ctx context.Context, vector []float32, limit int) ([]document.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	var merged []document.SearchResult
	for _, name := range collections {
		hits, err := c.Search(ctx, name, vector, limit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", name, err)
		}
		merged = append(merged, hits...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// SearchCode queries the code sibling of a prose collection. A missing code
// collection is not an error, it just means no snippets were indexed.
func (c *Client) SearchCode(ctx context.Context, collection string, vector []float32, limit int) ([]document.SearchResult, error) {
	hits, err := c.Search(ctx, CodeCollectionName(collection), vector, limit)
	if err != nil {
		return nil, nil
	}
	return hits, nil
}

// DeleteCollection removes a collection and all its points.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/collections/"+name, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError("delete collection "+name, resp)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

func (c *Client) statusError(op string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases any resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
