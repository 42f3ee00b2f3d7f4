package embedder

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// basicTokenize applies BERT's uncased BasicTokenizer: drop control
// characters, isolate CJK ideographs, lowercase, strip accents, then split
// on whitespace and punctuation.
func basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		switch {
		case r == 0 || r == 0xFFFD || isControl(r):
		case isWhitespace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := stripAccents(strings.ToLower(b.String()))

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		tokens = splitPunctuation(tokens, word)
	}
	return tokens
}

// stripAccents removes combining marks after NFD decomposition.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitPunctuation appends word to dst, cutting it at every punctuation rune
// and keeping each punctuation rune as its own token.
func splitPunctuation(dst []string, word string) []string {
	start := 0
	for i, r := range word {
		if !isPunctuation(r) {
			continue
		}
		if i > start {
			dst = append(dst, word[start:i])
		}
		size := len(string(r))
		dst = append(dst, word[i:i+size])
		start = i + size
	}
	if start < len(word) {
		dst = append(dst, word[start:])
	}
	return dst
}

// Character classes follow the reference BERT tokenizer.

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf)
}

func isPunctuation(r rune) bool {
	// ASCII symbols count as punctuation even where Unicode says otherwise ("$", "^", "`").
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
