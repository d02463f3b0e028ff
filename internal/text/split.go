package text

import "strings"

// minSentenceLen filters out fragments produced by abbreviations and
// stray terminators.
const minSentenceLen = 10

// Sentences splits text into sentences on terminal punctuation.
// Fragments shorter than minSentenceLen runes are merged forward into the
// next sentence rather than dropped, so no input text is lost.
func Sentences(s string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range s {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			sentence := strings.TrimSpace(current.String())
			if len(sentence) >= minSentenceLen {
				sentences = append(sentences, normalizeSpace(sentence))
				current.Reset()
			}
		}
	}

	if rest := strings.TrimSpace(current.String()); rest != "" {
		sentences = append(sentences, normalizeSpace(rest))
	}

	return sentences
}

// Paragraphs splits text on blank lines, trimming each block. Single
// newlines inside a block are treated as soft wraps and collapsed.
func Paragraphs(s string) []string {
	blocks := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
	paragraphs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		paragraphs = append(paragraphs, normalizeSpace(b))
	}
	return paragraphs
}

// normalizeSpace collapses runs of whitespace to single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
