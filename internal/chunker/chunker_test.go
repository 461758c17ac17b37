package chunker

import (
	"strings"
	"testing"
)

func TestSplitIntoSections_HeaderBoundaries(t *testing.T) {
	input := "intro line\n# First\nbody one\n## Second\nbody two"
	sections := SplitIntoSections(input)

	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}

	if sections[0].Header != "" {
		t.Errorf("preamble section: expected empty header, got %q", sections[0].Header)
	}
	if sections[0].Text != "intro line" {
		t.Errorf("preamble section: expected %q, got %q", "intro line", sections[0].Text)
	}

	if sections[1].Header != "# First" {
		t.Errorf("expected header %q, got %q", "# First", sections[1].Header)
	}
	if sections[1].Text != "# First\nbody one" {
		t.Errorf("expected section text to include its header line, got %q", sections[1].Text)
	}

	if sections[2].Header != "## Second" {
		t.Errorf("expected header %q, got %q", "## Second", sections[2].Header)
	}
}

func TestSplitIntoSections_FencedHeaderIgnored(t *testing.T) {
	// A shell comment inside a fence looks exactly like an ATX header and
	// must not start a new section.
	input := "# Real\nsome prose\n```bash\n# not a header\necho hi\n```\nmore prose"
	sections := SplitIntoSections(input)

	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Text, "# not a header") {
		t.Errorf("expected fenced comment to stay in the section, got %q", sections[0].Text)
	}
}

func TestSplitIntoSections_NoHeaders(t *testing.T) {
	sections := SplitIntoSections("just a plain paragraph\nwith two lines")
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Header != "" {
		t.Errorf("expected empty header, got %q", sections[0].Header)
	}
}

func TestSplitIntoSections_Empty(t *testing.T) {
	if sections := SplitIntoSections(""); len(sections) != 0 {
		t.Errorf("expected no sections for empty input, got %d", len(sections))
	}
}

func TestSplitIntoSections_UnterminatedFence(t *testing.T) {
	// An odd number of fence markers leaves header detection disabled for
	// the rest of the scan, without error.
	input := "# Top\n```\n# inside one\n# inside two"
	sections := SplitIntoSections(input)

	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Header != "# Top" {
		t.Errorf("expected header %q, got %q", "# Top", sections[0].Header)
	}
}

func TestSplitIntoSections_PreservesBlankLines(t *testing.T) {
	input := "# H\npara one\n\npara two"
	sections := SplitIntoSections(input)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Text, "\n\n") {
		t.Errorf("expected embedded blank line to survive, got %q", sections[0].Text)
	}
}

func TestChunkText_Empty(t *testing.T) {
	c := New(1500)
	if chunks := c.ChunkText(""); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestChunkText_SingleSectionFits(t *testing.T) {
	input := "# Title\nShort body."
	chunks := New(1500).ChunkText(input)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Errorf("expected chunk to be the section unchanged, got %q", chunks[0])
	}
}

func TestChunkText_HeaderReinjection(t *testing.T) {
	// Header of 7 chars plus a 2000-char body with no break characters.
	// Effective budget is 500-7-1 = 492, so the 2008-char section hard-cuts
	// into five chunks.
	input := "# Title\n" + strings.Repeat("a", 2000)
	chunks := New(500).ChunkText(input)

	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0], "# Title\n") {
		t.Errorf("first chunk should begin with the native header, got %q", chunks[0][:20])
	}
	for i, chunk := range chunks[1:] {
		if !strings.HasPrefix(chunk, "# Title\n") {
			t.Errorf("chunk %d: expected injected header prefix, got %q", i+1, chunk[:20])
		}
	}
}

func TestChunkText_NoContentLoss(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# Guide\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("This is sentence material for paragraph content. ")
		if i%5 == 4 {
			sb.WriteString("\n\n")
		}
	}
	input := sb.String()

	chunks := New(300).ChunkText(input)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Strip injected headers and whitespace, then compare essential
	// content against the input.
	squash := func(s string) string {
		s = strings.ReplaceAll(s, "# Guide", "")
		return strings.Join(strings.Fields(s), " ")
	}
	joined := squash(strings.Join(chunks, " "))
	want := squash(input)
	if joined != want {
		t.Errorf("content mismatch after chunking:\n got: %q\nwant: %q", joined, want)
	}
}

func TestChunkText_OversizedFencedBlockDeferred(t *testing.T) {
	// The fence heuristic cuts immediately before the opening delimiter,
	// so a fenced block that would straddle a window boundary starts its
	// own chunk instead.
	prose := strings.Repeat("Prose before the example continues for a while. ", 8)
	code := "```python\n" + strings.Repeat("print('row')\n", 30) + "```"
	input := "# Examples\n" + prose + "\n" + code

	chunks := New(500).ChunkText(input)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	found := false
	for _, chunk := range chunks {
		trimmed := strings.TrimPrefix(chunk, "# Examples\n")
		if strings.HasPrefix(trimmed, "```python") {
			found = true
		}
	}
	if !found {
		t.Error("expected the fenced block to start a chunk of its own")
	}
}

func TestChunkText_MultipleSectionsInOrder(t *testing.T) {
	input := "# One\nalpha\n# Two\nbeta\n# Three\ngamma"
	chunks := New(1500).ChunkText(input)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"# One", "# Two", "# Three"} {
		if !strings.HasPrefix(chunks[i], want) {
			t.Errorf("chunk %d: expected prefix %q, got %q", i, want, chunks[i])
		}
	}
}

func TestNew_DefaultsChunkSize(t *testing.T) {
	if c := New(0); c.ChunkSize != DefaultChunkSize {
		t.Errorf("expected default chunk size %d, got %d", DefaultChunkSize, c.ChunkSize)
	}
	if c := New(-5); c.ChunkSize != DefaultChunkSize {
		t.Errorf("expected default chunk size for negative input, got %d", c.ChunkSize)
	}
}
