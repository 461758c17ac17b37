package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_Passthrough(t *testing.T) {
	input := "# Title\n\nIntro text.\n\n## Section\n\nSection content.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Markdown != input {
		t.Errorf("markdown body must pass through unchanged")
	}
	if doc.Title != "Title" {
		t.Errorf("expected title from first heading, got %q", doc.Title)
	}
}

func TestMarkdownParser_TitleFallsBackToFilename(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("no headings here"), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected filename-derived title, got %q", doc.Title)
	}
}

func TestMarkdownParser_TitleFromLaterHeading(t *testing.T) {
	input := "preamble paragraph\n\n## Deep Heading\n\nbody"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Deep Heading" {
		t.Errorf("expected first heading anywhere in the doc, got %q", doc.Title)
	}
}

func TestForFile_SupportedFormats(t *testing.T) {
	for _, name := range []string{"a.md", "a.markdown", "a.txt", "a.csv", "a.html", "a.htm", "a.pdf", "a.docx"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("expected parser for %s, got error: %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("expected %s to be supported", name)
		}
	}
	if _, err := ForFile("a.exe"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
