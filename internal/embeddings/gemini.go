package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com"
	defaultGeminiModel      = "gemini-embedding-001"
	defaultGeminiDimensions = 3072
)

// GeminiProvider calls the Google generative language embedContent API.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	httpClient *http.Client
}

func NewGeminiProvider(s Settings) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:     s.APIKey,
		model:      s.Model,
		baseURL:    s.BaseURL,
		dimensions: s.Dimensions,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	if p.model == "" {
		p.model = defaultGeminiModel
	}
	if p.baseURL == "" {
		p.baseURL = defaultGeminiBaseURL
	}
	if p.dimensions <= 0 {
		p.dimensions = defaultGeminiDimensions
	}
	return p
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Dimensions() int { return p.dimensions }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiVector struct {
	Values []float32 `json:"values"`
}

func (p *GeminiProvider) embedRequest(text string) geminiEmbedRequest {
	req := geminiEmbedRequest{
		Model:   "models/" + p.model,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}
	if p.dimensions != defaultGeminiDimensions {
		req.OutputDimensionality = p.dimensions
	}
	return req
}

// Embed returns the vector for a single text.
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent?key=%s", p.baseURL, p.model, p.apiKey)

	respBody, err := p.post(ctx, url, p.embedRequest(text))
	if err != nil {
		return nil, err
	}

	var apiResp struct {
		Embedding geminiVector `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(apiResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from gemini")
	}
	return apiResp.Embedding.Values, nil
}

// EmbedBatch embeds all texts in a single batchEmbedContents call.
func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:batchEmbedContents?key=%s", p.baseURL, p.model, p.apiKey)

	reqs := make([]geminiEmbedRequest, len(texts))
	for i, text := range texts {
		reqs[i] = p.embedRequest(text)
	}
	respBody, err := p.post(ctx, url, map[string]any{"requests": reqs})
	if err != nil {
		return nil, err
	}

	var apiResp struct {
		Embeddings []geminiVector `json:"embeddings"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(apiResp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(apiResp.Embeddings))
	for i, emb := range apiResp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (p *GeminiProvider) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

// Close releases resources.
func (p *GeminiProvider) Close() {
	p.httpClient.CloseIdleConnections()
}
