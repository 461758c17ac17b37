// Package chunker splits Markdown documents into bounded, semantically
// coherent chunks and extracts fenced code blocks with surrounding prose
// context. All functions are pure: they hold no state across calls and are
// safe to invoke concurrently across documents.
package chunker

import "strings"

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 1500

// Chunker splits Markdown text at semantic header boundaries, falling back
// to a boundary-heuristic cascade for sections that exceed ChunkSize.
type Chunker struct {
	ChunkSize int
}

// New returns a Chunker with the given target size, defaulting when
// non-positive.
func New(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{ChunkSize: chunkSize}
}

// Section is a contiguous run of lines belonging to one heading scope.
// Header is empty for content preceding the first header.
type Section struct {
	Header string
	Text   string
}

// ChunkText splits text into chunks of at most ChunkSize characters.
// The limit is soft: a chunk may exceed it when a single atomic unit cannot
// be split further, or by the length of a re-injected section header.
func (c *Chunker) ChunkText(text string) []string {
	if text == "" {
		return nil
	}

	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	for _, sec := range SplitIntoSections(text) {
		chunks = append(chunks, boundSection(sec.Text, sec.Header, size)...)
	}
	return chunks
}

// SplitIntoSections partitions text into semantic sections at ATX header
// boundaries. Header-like lines inside fenced code regions never start a
// section; a document with no headers yields a single section with an
// empty header.
func SplitIntoSections(text string) []Section {
	if text == "" {
		return nil
	}

	var sections []Section
	var current []string
	header := ""
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		// Fence delimiters toggle state and always join the current
		// section, even when the line would also match a header.
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			current = append(current, line)
			continue
		}

		if !inFence && isATXHeader(line) {
			sectionText := strings.TrimSpace(strings.Join(current, "\n"))
			if sectionText != "" {
				sections = append(sections, Section{Header: header, Text: sectionText})
			}
			header = strings.TrimSpace(line)
			current = []string{line}
			continue
		}

		current = append(current, line)
	}

	tail := strings.TrimSpace(strings.Join(current, "\n"))
	if tail != "" {
		sections = append(sections, Section{Header: header, Text: tail})
	}
	return sections
}

// isATXHeader reports whether line is a Markdown ATX heading: one to six
// leading '#' characters followed by whitespace.
func isATXHeader(line string) bool {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	if i < 1 || i > 6 || i >= len(line) {
		return false
	}
	return line[i] == ' ' || line[i] == '\t'
}
