// Package text provides the lexical primitives shared by the compression
// and decompression pipelines: tokenization, word counting, sentence and
// paragraph segmentation, and deterministic term vectors.
//
// Everything here is pure and reproducible. The same input always yields
// the same tokens, the same counts, and the same vectors, which is what
// lets quality metrics be compared across runs and platforms.
package text

import (
	"strings"
	"unicode"
)

// punctTrimSet is the punctuation stripped from token edges.
const punctTrimSet = ".,!?;:()[]{}\"'`—–-"

// Fields splits text into raw whitespace-separated fields.
func Fields(s string) []string {
	return strings.Fields(s)
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Tokenize lowercases text and splits it into cleaned word tokens.
// Edge punctuation is trimmed; empty results are dropped.
func Tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.Trim(f, punctTrimSet)
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// ContentTokens returns Tokenize(s) with stopwords and short tokens removed.
// These are the tokens that carry meaning for similarity and salience scoring.
func ContentTokens(s string) []string {
	tokens := Tokenize(s)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) <= 2 || IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TokenSet returns the set of content tokens in s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range ContentTokens(s) {
		set[t] = struct{}{}
	}
	return set
}

// Frequencies counts content-token occurrences in s.
func Frequencies(s string) map[string]int {
	freq := make(map[string]int)
	for _, t := range ContentTokens(s) {
		freq[t]++
	}
	return freq
}

// TitleCase uppercases the first letter of s, leaving the rest untouched.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// TruncateWords cuts s to at most n words. It returns s unchanged when the
// word count is already within bounds.
func TruncateWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return s
	}
	return strings.Join(fields[:n], " ")
}
