// Package crawler fetches web pages and converts them to Markdown for the
// ingestion pipeline. A crawl target may be a single page, a sitemap.xml,
// or a .txt list of URLs; same-host links are followed breadth-first up to
// the configured depth and page count.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DinuPhan/MRE-Rag/internal/document"
	"github.com/DinuPhan/MRE-Rag/internal/parser"
	"golang.org/x/net/html"
)

const maxBodyBytes = 10 << 20

// Options bounds one crawl.
type Options struct {
	MaxDepth int // 0 = only the target page(s)
	MaxPages int // hard cap across the whole crawl
}

// Crawler fetches pages over HTTP and exports each crawled page as an
// llms.txt knowledge dump.
type Crawler struct {
	httpClient *http.Client
	exporter   *Exporter
	log        *slog.Logger
}

func New(outputDir string, log *slog.Logger) *Crawler {
	return &Crawler{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		exporter:   NewExporter(outputDir, log),
		log:        log,
	}
}

// Crawl fetches the target and, for ordinary pages, same-host pages linked
// from it. Individual page failures are logged and skipped; an error is
// returned only when nothing could be crawled.
func (c *Crawler) Crawl(ctx context.Context, target string, opts Options) ([]document.Document, error) {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}

	seeds, err := c.expandTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}

	type item struct {
		url   string
		depth int
	}
	queue := make([]item, 0, len(seeds))
	visited := make(map[string]bool)
	for _, s := range seeds {
		queue = append(queue, item{url: s})
	}

	var pages []document.Document
	for len(queue) > 0 && len(pages) < opts.MaxPages {
		next := queue[0]
		queue = queue[1:]
		if visited[next.url] {
			continue
		}
		visited[next.url] = true

		doc, links, err := c.fetchPage(ctx, next.url)
		if err != nil {
			c.log.Warn("page fetch failed", "url", next.url, "error", err)
			continue
		}
		pages = append(pages, *doc)
		c.exporter.Export(*doc)

		if next.depth < opts.MaxDepth {
			for _, link := range sameHostLinks(links, base) {
				if !visited[link] {
					queue = append(queue, item{url: link, depth: next.depth + 1})
				}
			}
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages were successfully crawled from %s", target)
	}
	return pages, nil
}

// expandTarget turns sitemap.xml and .txt URL-list targets into their
// listed URLs; anything else is a single seed.
func (c *Crawler) expandTarget(ctx context.Context, target string) ([]string, error) {
	switch {
	case strings.HasSuffix(target, "sitemap.xml"):
		body, _, err := c.fetch(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("fetch sitemap: %w", err)
		}
		urls, err := parseSitemap(body)
		if err != nil {
			return nil, fmt.Errorf("parse sitemap: %w", err)
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("sitemap %s lists no urls", target)
		}
		return urls, nil

	case strings.HasSuffix(target, ".txt"):
		body, _, err := c.fetch(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("fetch url list: %w", err)
		}
		var urls []string
		for _, line := range strings.Split(string(body), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
				urls = append(urls, line)
			}
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("url list %s contains no urls", target)
		}
		return urls, nil

	default:
		return []string{target}, nil
	}
}

// fetchPage downloads one page and converts it to Markdown, also returning
// the raw href values found in it.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (*document.Document, []string, error) {
	body, contentType, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	// Non-HTML text is taken verbatim; it is usually Markdown or close
	// enough for the chunker.
	if !strings.Contains(contentType, "html") {
		return &document.Document{
			URL:      pageURL,
			Title:    titleFromURL(pageURL),
			Markdown: string(body),
		}, nil, nil
	}

	title, markdown, err := parser.ConvertHTML(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("convert html: %w", err)
	}
	if title == "" {
		title = titleFromURL(pageURL)
	}

	links, err := extractLinks(bytes.NewReader(body))
	if err != nil {
		links = nil
	}

	return &document.Document{URL: pageURL, Title: title, Markdown: markdown}, links, nil
}

func (c *Crawler) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "mre-rag-crawler/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// extractLinks collects href values from anchor tags.
func extractLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					links = append(links, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// sameHostLinks resolves hrefs against base and keeps absolute http(s)
// URLs on the same host, with fragments stripped.
func sameHostLinks(hrefs []string, base *url.URL) []string {
	var out []string
	seen := make(map[string]bool)
	for _, href := range hrefs {
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		u := base.ResolveReference(ref)
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		if u.Host != base.Host {
			continue
		}
		u.Fragment = ""
		s := u.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return parts[len(parts)-1]
}
