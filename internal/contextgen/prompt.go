package contextgen

import "strings"

// Truncation limits for the prompt, in characters. The code body gets the
// most room; surrounding prose only needs enough to establish the topic.
const (
	maxContextBefore = 500
	maxCodeChars     = 1500
	maxContextAfter  = 500
)

// BuildCodeTitlePrompt assembles the prompt for titling a code snippet from
// its body and the prose around it. The before-context keeps its tail (the
// text nearest the snippet), the code and after-context keep their heads.
func BuildCodeTitlePrompt(code, contextBefore, contextAfter string) string {
	var sb strings.Builder
	sb.WriteString("<context_before>\n")
	sb.WriteString(lastChars(contextBefore, maxContextBefore))
	sb.WriteString("\n</context_before>\n\n")
	sb.WriteString("<code_example>\n")
	sb.WriteString(firstChars(code, maxCodeChars))
	sb.WriteString("\n</code_example>\n\n")
	sb.WriteString("<context_after>\n")
	sb.WriteString(firstChars(contextAfter, maxContextAfter))
	sb.WriteString("\n</context_after>\n\n")
	sb.WriteString("Based on the code example and its surrounding context, provide a concise 1-sentence summary/title that describes what this code example demonstrates. Formulate it so it serves well as search metadata (e.g. 'Example demonstrating how to configure cache bypass in Crawl4AI'). Do NOT use Markdown formatting or quote marks.")
	return sb.String()
}

func firstChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func lastChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
