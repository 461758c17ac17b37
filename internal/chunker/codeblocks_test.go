package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractCodeBlocks_LanguageAndCode(t *testing.T) {
	blocks := ExtractCodeBlocks("```python\nprint(1)\n```", 1)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Language != "python" {
		t.Errorf("expected language %q, got %q", "python", b.Language)
	}
	if b.Code != "print(1)" {
		t.Errorf("expected code %q, got %q", "print(1)", b.Code)
	}
	if b.ContextBefore != "" || b.ContextAfter != "" {
		t.Errorf("expected empty contexts, got %q / %q", b.ContextBefore, b.ContextAfter)
	}
}

func TestExtractCodeBlocks_MinLengthFilter(t *testing.T) {
	short := "```\n" + strings.Repeat("x", 49) + "\n```"
	if blocks := ExtractCodeBlocks(short, 50); len(blocks) != 0 {
		t.Errorf("expected 49-char block to be discarded, got %d blocks", len(blocks))
	}

	exact := "```\n" + strings.Repeat("x", 50) + "\n```"
	if blocks := ExtractCodeBlocks(exact, 50); len(blocks) != 1 {
		t.Errorf("expected 50-char block to be retained, got %d blocks", len(blocks))
	}
}

func TestExtractCodeBlocks_OddDelimiterIgnored(t *testing.T) {
	markdown := "```\n" + strings.Repeat("a", 60) + "\n```\ntrailing prose\n```"
	blocks := ExtractCodeBlocks(markdown, 1)

	if len(blocks) != 1 {
		t.Fatalf("expected the unpaired delimiter to be ignored, got %d blocks", len(blocks))
	}
}

func TestExtractCodeBlocks_FirstLineWithSpaceIsNotATag(t *testing.T) {
	markdown := "```\nnot a tag\n" + strings.Repeat("b", 60) + "\n```"
	blocks := ExtractCodeBlocks(markdown, 1)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Language != "" {
		t.Errorf("expected no language, got %q", blocks[0].Language)
	}
	if !strings.HasPrefix(blocks[0].Code, "not a tag") {
		t.Errorf("expected first line kept in code body, got %q", blocks[0].Code)
	}
}

func TestExtractCodeBlocks_LongFirstLineIsNotATag(t *testing.T) {
	longTag := strings.Repeat("z", 25)
	markdown := "```" + longTag + "\n" + strings.Repeat("c", 60) + "\n```"
	blocks := ExtractCodeBlocks(markdown, 1)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Language != "" {
		t.Errorf("expected 25-char first line rejected as tag, got %q", blocks[0].Language)
	}
	if !strings.HasPrefix(blocks[0].Code, longTag) {
		t.Errorf("expected rejected tag line kept in code body")
	}
}

func TestExtractCodeBlocks_ContextWindows(t *testing.T) {
	before := strings.Repeat("p", 600)
	after := strings.Repeat("q", 600)
	markdown := before + "\n```go\n" + strings.Repeat("r", 80) + "\n```\n" + after

	blocks := ExtractCodeBlocks(markdown, 1)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]

	if got := utf8.RuneCountInString(b.ContextBefore); got > 500 {
		t.Errorf("context_before exceeds 500 chars: %d", got)
	}
	if !strings.HasSuffix(b.ContextBefore, "p") || strings.Contains(b.ContextBefore, "\n") {
		t.Errorf("unexpected context_before: %q", b.ContextBefore[:20])
	}
	if got := utf8.RuneCountInString(b.ContextAfter); got > 500 {
		t.Errorf("context_after exceeds 500 chars: %d", got)
	}
	if !strings.HasPrefix(b.ContextAfter, "q") {
		t.Errorf("unexpected context_after: %q", b.ContextAfter[:20])
	}
}

func TestExtractCodeBlocks_MultipleBlocksInOrder(t *testing.T) {
	markdown := "intro\n```go\n" + strings.Repeat("a", 60) + "\n```\nmiddle\n```rust\n" + strings.Repeat("b", 60) + "\n```\nend"
	blocks := ExtractCodeBlocks(markdown, 1)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Language != "go" || blocks[1].Language != "rust" {
		t.Errorf("expected languages in document order, got %q, %q", blocks[0].Language, blocks[1].Language)
	}
	// Both contexts cover the prose between the two blocks.
	if !strings.Contains(blocks[0].ContextAfter, "middle") || !strings.Contains(blocks[1].ContextBefore, "middle") {
		t.Errorf("expected shared middle prose in contexts, got %q / %q", blocks[0].ContextAfter, blocks[1].ContextBefore)
	}
}

func TestExtractCodeBlocks_NoFences(t *testing.T) {
	if blocks := ExtractCodeBlocks("plain prose only", 1); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
}

func TestExtractCodeBlocks_RegionWithoutNewline(t *testing.T) {
	// No newline between the delimiters: the entire region is code, never
	// a language tag.
	markdown := "```" + strings.Repeat("k", 30) + "```"
	blocks := ExtractCodeBlocks(markdown, 1)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Language != "" {
		t.Errorf("expected no language for single-line region, got %q", blocks[0].Language)
	}
	if blocks[0].Code != strings.Repeat("k", 30) {
		t.Errorf("expected whole region as code, got %q", blocks[0].Code)
	}
}
