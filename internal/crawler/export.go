package crawler

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DinuPhan/MRE-Rag/internal/document"
)

// Exporter writes crawled pages to the local output directory in llms.txt
// format, a raw knowledge dump keyed by source URL.
type Exporter struct {
	outputDir string
	log       *slog.Logger
}

func NewExporter(outputDir string, log *slog.Logger) *Exporter {
	return &Exporter{outputDir: outputDir, log: log}
}

// Export writes one page. Failures are logged, never fatal: the export is
// a convenience artifact, not part of the ingestion contract.
func (e *Exporter) Export(doc document.Document) {
	if e.outputDir == "" {
		return
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		e.log.Warn("llms.txt export skipped", "error", err)
		return
	}

	path := filepath.Join(e.outputDir, safeFilename(doc.URL)+"_llms.txt")
	content := fmt.Sprintf("# Source: %s\n\n%s", doc.URL, doc.Markdown)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.log.Warn("llms.txt export failed", "path", path, "error", err)
		return
	}
	e.log.Info("exported knowledge dump", "path", path)
}

// safeFilename squashes a URL into a filesystem-safe name, capped at 50
// characters.
func safeFilename(rawURL string) string {
	var b strings.Builder
	for _, r := range rawURL {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "page"
	}
	return name
}

// parseSitemap extracts the loc entries from a sitemap.xml body.
func parseSitemap(body []byte) ([]string, error) {
	var set struct {
		URLs []struct {
			Loc string `xml:"loc"`
		} `xml:"url"`
	}
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, err
	}

	var urls []string
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}
