package chunker

import "strings"

// cutRule is one boundary heuristic in the splitting cascade. The window is
// searched backward for token; a hit is accepted only when its offset
// strictly exceeds minFraction of the budget, so near-empty micro-chunks
// are never produced. keepToken shifts the cut past the boundary rune so a
// sentence terminator stays with the chunk that owns it.
type cutRule struct {
	token       string
	minFraction float64
	keepToken   bool
}

// Evaluated top to bottom; the first accepted rule wins. Cutting before a
// fence delimiter defers the whole fenced block into the next chunk.
var cutRules = []cutRule{
	{token: "```", minFraction: 0.3},
	{token: "\n\n", minFraction: 0.3},
	{token: ". ", minFraction: 0.3, keepToken: true},
	{token: "\n", minFraction: 0.3},
	{token: " ", minFraction: 0.1},
}

// boundSection splits one section into chunks of at most chunkSize
// characters, re-injecting the owning header into continuation chunks.
// Sections that already fit are returned unchanged.
func boundSection(text, header string, chunkSize int) []string {
	if runeLen(text) <= chunkSize {
		return []string{text}
	}
	return injectHeader(splitWindows(text, header, chunkSize), header)
}

// splitWindows applies the cut cascade repeatedly until the text is
// consumed. All offsets and budgets are character counts, not bytes.
func splitWindows(text, header string, chunkSize int) []string {
	budget := chunkSize
	if header != "" {
		budget = chunkSize - runeLen(header) - 1
		// A header longer than the whole budget would leave nothing to
		// split; degrade to the raw chunk size instead of failing.
		if budget <= 0 {
			budget = chunkSize
		}
	}

	runes := []rune(text)
	var chunks []string
	start := 0

	for start < len(runes) {
		if len(runes)-start <= budget {
			if chunk := strings.TrimSpace(string(runes[start:])); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		window := runes[start : start+budget]
		end := start + budget // hard cut unless a rule is accepted
		for _, rule := range cutRules {
			idx := lastIndexRunes(window, []rune(rule.token))
			if idx == -1 {
				continue
			}
			if float64(idx) <= rule.minFraction*float64(budget) {
				continue
			}
			end = start + idx
			if rule.keepToken {
				end++
			}
			break
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}

	return chunks
}

// injectHeader prepends the owning header to every continuation chunk that
// does not already start with it, so each chunk remains independently
// interpretable after splitting.
func injectHeader(chunks []string, header string) []string {
	if header == "" {
		return chunks
	}
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && !strings.HasPrefix(chunk, header) {
			chunk = header + "\n" + chunk
		}
		out[i] = chunk
	}
	return out
}
