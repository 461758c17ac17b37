package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/DinuPhan/MRE-Rag/internal/document"
)

// CSVParser renders CSV files as Markdown pipe tables, one table per batch
// of rows so the chunker can split between batches.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &document.Document{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	dataRows := records[1:]

	var md strings.Builder
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		if md.Len() > 0 {
			md.WriteString("\n\n")
		}
		// 1-indexed row numbers, accounting for the header row.
		fmt.Fprintf(&md, "## Rows %d-%d\n\n", i+2, end+1)
		md.WriteString(tableRow(headers))
		md.WriteString(tableSeparator(len(headers)))
		for _, row := range dataRows[i:end] {
			md.WriteString(tableRow(row))
		}
	}

	doc.Markdown = md.String()
	return doc, nil
}

func tableRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

func tableSeparator(n int) string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = "---"
	}
	return "| " + strings.Join(cols, " | ") + " |\n"
}
