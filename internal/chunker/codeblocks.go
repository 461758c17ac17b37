package chunker

import "strings"

const (
	// DefaultMinCodeLength is the shortest code body worth indexing.
	DefaultMinCodeLength = 50

	// contextWindow is how many characters of prose to capture on each
	// side of a block.
	contextWindow = 500

	// maxLanguageTagLen bounds the opening-line language identifier.
	maxLanguageTagLen = 20

	fenceDelimiter = "```"
)

// CodeBlock is one fenced code region with its surrounding prose context.
type CodeBlock struct {
	Code          string
	Language      string
	ContextBefore string
	ContextAfter  string
}

// ExtractCodeBlocks scans markdown for triple-backtick delimiters, pairing
// them consecutively. Blocks whose code body is shorter than minLength
// characters are discarded, context included. An unpaired trailing
// delimiter is ignored. Pairing by raw delimiter count is a deliberate
// heuristic: malformed fencing misattributes boundaries rather than
// producing an error.
func ExtractCodeBlocks(markdown string, minLength int) []CodeBlock {
	runes := []rune(markdown)
	delim := []rune(fenceDelimiter)

	var positions []int
	for pos := 0; ; {
		idx := indexRunes(runes[pos:], delim)
		if idx == -1 {
			break
		}
		positions = append(positions, pos+idx)
		pos += idx + len(delim)
	}

	var blocks []CodeBlock
	for i := 0; i+1 < len(positions); i += 2 {
		open := positions[i]
		close := positions[i+1]

		language, code := splitLanguageTag(string(runes[open+len(delim) : close]))
		if runeLen(code) < minLength {
			continue
		}

		beforeStart := max(0, open-contextWindow)
		afterStart := close + len(delim)
		afterEnd := min(len(runes), afterStart+contextWindow)

		blocks = append(blocks, CodeBlock{
			Code:          code,
			Language:      language,
			ContextBefore: strings.TrimSpace(string(runes[beforeStart:open])),
			ContextAfter:  strings.TrimSpace(string(runes[afterStart:afterEnd])),
		})
	}
	return blocks
}

// splitLanguageTag treats the region's first line as a language identifier
// when it is non-empty, contains no space, and is shorter than 20
// characters; otherwise the whole region is the code body.
func splitLanguageTag(region string) (language, code string) {
	first, rest, found := strings.Cut(region, "\n")
	tag := strings.TrimSpace(first)
	if found && tag != "" && !strings.Contains(tag, " ") && runeLen(tag) < maxLanguageTagLen {
		return tag, strings.TrimSpace(rest)
	}
	return "", strings.TrimSpace(region)
}
