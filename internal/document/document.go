package document

// Document is one unit of ingestible content: a crawled page or a parsed
// upload, with its body normalized to Markdown.
type Document struct {
	URL      string // Source URL, or a synthetic upload:// URL for files
	Title    string // Page title or filename-derived title
	Markdown string // Full Markdown body, the chunker's input
}

// ChunkPayload is a prose chunk ready for embedding and storage.
type ChunkPayload struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

// CodePayload is an extracted code block ready for the parallel code
// collection. Content is the embedding text (optionally AI-titled);
// RawCode keeps a clean copy for exact retrieval.
type CodePayload struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	CodeIndex int    `json:"code_index"`
	Language  string `json:"language"`
	RawCode   string `json:"raw_code"`
	Content   string `json:"content"`
}

// Map flattens the payload for storage alongside its vector.
func (p ChunkPayload) Map() map[string]any {
	return map[string]any{
		"url":         p.URL,
		"title":       p.Title,
		"chunk_index": p.ChunkIndex,
		"content":     p.Content,
	}
}

// Map flattens the payload for storage alongside its vector.
func (p CodePayload) Map() map[string]any {
	return map[string]any{
		"url":        p.URL,
		"title":      p.Title,
		"code_index": p.CodeIndex,
		"language":   p.Language,
		"raw_code":   p.RawCode,
		"content":    p.Content,
	}
}

// SearchResult is one scored hit returned from the vector store.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}
