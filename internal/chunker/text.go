package chunker

import "unicode/utf8"

// runeLen counts characters, matching the budget arithmetic which is
// defined over characters rather than bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// indexRunes returns the offset of the first occurrence of token in s,
// or -1.
func indexRunes(s, token []rune) int {
	if len(token) == 0 || len(token) > len(s) {
		return -1
	}
	for i := 0; i+len(token) <= len(s); i++ {
		if matchAt(s, token, i) {
			return i
		}
	}
	return -1
}

// lastIndexRunes returns the offset of the last occurrence of token in s,
// or -1.
func lastIndexRunes(s, token []rune) int {
	if len(token) == 0 || len(token) > len(s) {
		return -1
	}
	for i := len(s) - len(token); i >= 0; i-- {
		if matchAt(s, token, i) {
			return i
		}
	}
	return -1
}

func matchAt(s, token []rune, at int) bool {
	for j, r := range token {
		if s[at+j] != r {
			return false
		}
	}
	return true
}
