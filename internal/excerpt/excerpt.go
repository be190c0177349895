// Package excerpt derives length-bounded, word-boundary-safe snippets from
// ordered lists of article content blocks.
package excerpt

import "strings"

// DefaultMaxLength bounds an excerpt when callers pass no explicit limit.
const DefaultMaxLength = 150

// Block types carrying body text. Scripture quotes are skipped unless
// nothing else is available.
const (
	TypeMainText   = "mainText"
	TypeScripture  = "scripture"
	TypeReflection = "reflection"
)

// Block is one typed content block.
type Block struct {
	Type  string
	Value string
}

// FromBlocks selects a representative snippet from blocks: the first
// mainText or reflection block, else the first block of any type, else "".
// The chosen text is returned verbatim when it fits within maxLen, otherwise
// it is truncated at a word boundary and suffixed with "...".
func FromBlocks(blocks []Block, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	for _, b := range blocks {
		if b.Type == TypeMainText || b.Type == TypeReflection {
			return Truncate(b.Value, maxLen)
		}
	}
	if len(blocks) > 0 {
		return Truncate(blocks[0].Value, maxLen)
	}
	return ""
}

// Truncate shortens text to at most maxLen characters at a word boundary and
// appends "...". Texts that already fit are returned unmodified, even when
// they end mid-sentence. When the sliced prefix holds more than one word the
// last one is dropped, since it may be a cut-off fragment; a single
// unsplittable word is kept at the character boundary. Lengths count runes,
// not bytes, so multi-byte scripts are never cut mid-character.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	words := strings.Fields(string(runes[:maxLen]))
	if len(words) > 1 {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ") + "..."
}
