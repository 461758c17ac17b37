package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/DinuPhan/MRE-Rag/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files by rendering them down to Markdown.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	title, markdown, err := ConvertHTML(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if title == "" {
		title = titleFromFilename(filename)
	}
	return &document.Document{Title: title, Markdown: markdown}, nil
}

// ConvertHTML parses HTML and renders it as Markdown: headings become ATX
// headers, pre/code becomes fenced blocks (language taken from a
// language-* class), lists and blockquotes keep their shape. The crawler
// uses this for fetched pages, the ingest path for uploaded files.
func ConvertHTML(r io.Reader) (title, markdown string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	title = findTitle(doc)

	root := findBody(doc)
	if root == nil {
		root = doc
	}
	var blocks []string
	walkHTML(root, &blocks)
	return title, strings.Join(blocks, "\n\n"), nil
}

func walkHTML(n *html.Node, blocks *[]string) {
	if n.Type == html.ElementNode {
		if level := headingLevel(n.Data); level > 0 {
			if t := inlineText(n); t != "" {
				*blocks = append(*blocks, strings.Repeat("#", level)+" "+t)
			}
			return
		}

		switch n.Data {
		case "script", "style", "nav", "footer", "noscript":
			return
		case "pre":
			code, lang := preformattedText(n)
			if strings.TrimSpace(code) != "" {
				*blocks = append(*blocks, "```"+lang+"\n"+strings.Trim(code, "\n")+"\n```")
			}
			return
		case "p", "td", "th":
			if t := inlineText(n); t != "" {
				*blocks = append(*blocks, t)
			}
			return
		case "blockquote":
			if t := inlineText(n); t != "" {
				*blocks = append(*blocks, "> "+t)
			}
			return
		case "ul", "ol":
			if items := listItems(n); len(items) > 0 {
				*blocks = append(*blocks, strings.Join(items, "\n"))
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, blocks)
	}
}

func listItems(n *html.Node) []string {
	var items []string
	idx := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		t := inlineText(c)
		if t == "" {
			continue
		}
		if n.Data == "ol" {
			items = append(items, fmt.Sprintf("%d. %s", idx, t))
			idx++
		} else {
			items = append(items, "- "+t)
		}
	}
	return items
}

// inlineText renders the inline content of a node as Markdown, collapsing
// runs of whitespace. Anchors become [text](href), inline code gets
// backticks.
func inlineText(n *html.Node) string {
	var buf strings.Builder
	var render func(*html.Node)
	render = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "a":
			text := rawText(n)
			href := attrValue(n, "href")
			if text != "" && href != "" && !strings.ContainsAny(href, " )") {
				fmt.Fprintf(&buf, " [%s](%s) ", strings.Join(strings.Fields(text), " "), href)
			} else {
				buf.WriteString(text)
			}
		case n.Type == html.ElementNode && n.Data == "code":
			buf.WriteString(" `" + strings.TrimSpace(rawText(n)) + "` ")
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			// skip
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				render(c)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(c)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// preformattedText extracts the raw text of a pre element and a language
// hint from a language-* class on the pre or a nested code element.
func preformattedText(n *html.Node) (code, lang string) {
	lang = languageClass(n)
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "code" && lang == "" {
			lang = languageClass(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return rawText(n), lang
}

func languageClass(n *html.Node) string {
	for _, class := range strings.Fields(attrValue(n, "class")) {
		if after, ok := strings.CutPrefix(class, "language-"); ok {
			return after
		}
	}
	return ""
}

// rawText concatenates all descendant text nodes without reformatting.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(rawText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
