package parser

import (
	"strings"
	"testing"
)

func TestConvertHTML_HeadingsAndParagraphs(t *testing.T) {
	input := `<html><head><title>Docs Home</title></head><body>
<h1>Getting Started</h1>
<p>First paragraph.</p>
<h2>Install</h2>
<p>Second   paragraph with
broken lines.</p>
</body></html>`

	title, md, err := ConvertHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if title != "Docs Home" {
		t.Errorf("expected title %q, got %q", "Docs Home", title)
	}
	want := "# Getting Started\n\nFirst paragraph.\n\n## Install\n\nSecond paragraph with broken lines."
	if md != want {
		t.Errorf("markdown mismatch:\n got: %q\nwant: %q", md, want)
	}
}

func TestConvertHTML_CodeBlocks(t *testing.T) {
	input := `<body><p>Run this:</p>
<pre><code class="language-python">print("hi")
print("bye")</code></pre></body>`

	_, md, err := ConvertHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(md, "```python\nprint(\"hi\")\nprint(\"bye\")\n```") {
		t.Errorf("expected fenced block with language tag, got %q", md)
	}
}

func TestConvertHTML_ListsAndLinks(t *testing.T) {
	input := `<body>
<ul><li>first</li><li>second</li></ul>
<ol><li>one</li><li>two</li></ol>
<p>See <a href="https://example.com/docs">the docs</a> for more.</p>
</body>`

	_, md, err := ConvertHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(md, "- first\n- second") {
		t.Errorf("expected unordered list, got %q", md)
	}
	if !strings.Contains(md, "1. one\n2. two") {
		t.Errorf("expected ordered list, got %q", md)
	}
	if !strings.Contains(md, "[the docs](https://example.com/docs)") {
		t.Errorf("expected markdown link, got %q", md)
	}
}

func TestConvertHTML_SkipsChrome(t *testing.T) {
	input := `<body>
<nav><p>menu item</p></nav>
<script>var x = 1;</script>
<p>real content</p>
<footer><p>copyright</p></footer>
</body>`

	_, md, err := ConvertHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(md, "menu item") || strings.Contains(md, "copyright") || strings.Contains(md, "var x") {
		t.Errorf("expected nav/script/footer content dropped, got %q", md)
	}
	if !strings.Contains(md, "real content") {
		t.Errorf("expected body content kept, got %q", md)
	}
}

func TestHTMLParser_TitleFallback(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<body><p>hello</p></body>"), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "page" {
		t.Errorf("expected filename-derived title, got %q", doc.Title)
	}
}
