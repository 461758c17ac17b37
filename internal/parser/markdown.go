package parser

import (
	"io"

	"github.com/DinuPhan/MRE-Rag/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files. The body passes through untouched
// (it is already the chunker's native format); goldmark is used only to
// pull a document title out of the first heading.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	title := firstHeading(src)
	if title == "" {
		title = titleFromFilename(filename)
	}

	return &document.Document{
		Title:    title,
		Markdown: string(src),
	}, nil
}

// firstHeading returns the text of the first heading in the document, or
// empty when there is none.
func firstHeading(src []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			return string(h.Text(src))
		}
	}
	return ""
}
