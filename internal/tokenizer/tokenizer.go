// Package tokenizer provides the whitespace tokenizer used for the annotated
// text field. Unlike a general-purpose analyzer it must preserve character
// offsets exactly: annotation spans are expressed in character offsets into
// the original text, and the structured matcher compares token spans against
// annotation spans at character granularity.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is one term occurrence with its character span in the source text.
// End is inclusive: a token of length 1 has Start == End.
type Token struct {
	Term  string
	Start int
	End   int
}

// TokenizeWithOffsets splits text on Unicode whitespace and reports each
// token together with its character span. Terms are lowercased; offsets
// refer to the original (non-lowercased) text and count characters, not
// bytes, because annotation files count characters.
func TokenizeWithOffsets(text string) []Token {
	tokens := make([]Token, 0)

	var b strings.Builder
	start := -1
	var pos int
	for _, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Term: strings.ToLower(b.String()), Start: start, End: pos - 1})
				b.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = pos
			}
			b.WriteRune(r)
		}
		pos++
	}
	if start >= 0 {
		tokens = append(tokens, Token{Term: strings.ToLower(b.String()), Start: start, End: pos - 1})
	}
	return tokens
}

// Tokenize returns just the lowercased terms of TokenizeWithOffsets.
func Tokenize(text string) []string {
	offs := TokenizeWithOffsets(text)
	terms := make([]string, len(offs))
	for i, tok := range offs {
		terms[i] = tok.Term
	}
	return terms
}

// NormalizeWhitespace replaces every whitespace character with a plain space
// without changing the string length. Annotation offsets index into the text,
// so any sanitation step must be strictly length-preserving.
func NormalizeWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
}

// RemoveControlChars replaces control and surrogate characters with spaces,
// again preserving the character count.
func RemoveControlChars(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cs, r) {
			return ' '
		}
		return r
	}, text)
}
