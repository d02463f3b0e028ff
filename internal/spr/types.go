// Package spr defines the sparse priming representation data model and its
// persisted line format.
//
// An SPR document is an ordered list of short declarative statements distilled
// from a source document, plus the metadata needed to judge the compression:
// original and compressed word counts, the achieved ratio, the statement
// format, and the trace id of the run that produced it.
package spr

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/spr/internal/text"
)

// Format controls the word bounds every statement must satisfy.
type Format string

const (
	// FormatMinimal produces terse 3-7 word statements for maximum density.
	FormatMinimal Format = "minimal"
	// FormatStandard produces 8-15 word statements, the default balance.
	FormatStandard Format = "standard"
	// FormatExtended produces 10-25 word statements preserving more nuance.
	FormatExtended Format = "extended"
)

// validFormats is the authoritative set of recognized format strings.
var validFormats = map[string]bool{
	string(FormatMinimal):  true,
	string(FormatStandard): true,
	string(FormatExtended): true,
}

// Formats returns the list of valid format strings.
func Formats() []string {
	return []string{string(FormatMinimal), string(FormatStandard), string(FormatExtended)}
}

// Valid reports whether f is a recognized format.
func (f Format) Valid() bool {
	return validFormats[string(f)]
}

// Bounds returns the inclusive word-count bounds for statements in this
// format. Unknown formats fall back to the standard bounds.
func (f Format) Bounds() (min, max int) {
	switch f {
	case FormatMinimal:
		return 3, 7
	case FormatExtended:
		return 10, 25
	default:
		return 8, 15
	}
}

// Fits reports whether a statement of n words satisfies the format bounds.
func (f Format) Fits(n int) bool {
	min, max := f.Bounds()
	return n >= min && n <= max
}

// ParseFormat converts a user-supplied string into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", ErrUnknownFormat
	}
	return f, nil
}

// ExpansionType controls how much prose decompression reconstructs per
// statement.
type ExpansionType string

const (
	// ExpansionBrief reconstructs a compact summary close to the SPR size.
	ExpansionBrief ExpansionType = "brief"
	// ExpansionDetailed reconstructs working prose with supporting detail.
	ExpansionDetailed ExpansionType = "detailed"
	// ExpansionComprehensive reconstructs document-scale prose.
	ExpansionComprehensive ExpansionType = "comprehensive"
)

var validExpansions = map[string]bool{
	string(ExpansionBrief):         true,
	string(ExpansionDetailed):      true,
	string(ExpansionComprehensive): true,
}

// Expansions returns the list of valid expansion type strings.
func Expansions() []string {
	return []string{string(ExpansionBrief), string(ExpansionDetailed), string(ExpansionComprehensive)}
}

// Valid reports whether e is a recognized expansion type.
func (e ExpansionType) Valid() bool {
	return validExpansions[string(e)]
}

// ParseExpansion converts a user-supplied string into an ExpansionType.
func ParseExpansion(s string) (ExpansionType, error) {
	e := ExpansionType(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", ErrUnknownExpansion
	}
	return e, nil
}

// TargetLength optionally caps the size of reconstructed output.
type TargetLength string

const (
	// LengthAuto lets the expansion type determine output size.
	LengthAuto TargetLength = "auto"
	// LengthShort caps output at roughly summary size.
	LengthShort TargetLength = "short"
	// LengthMedium caps output at article size.
	LengthMedium TargetLength = "medium"
	// LengthLong caps output at document size.
	LengthLong TargetLength = "long"
)

var validLengths = map[string]bool{
	string(LengthAuto):   true,
	string(LengthShort):  true,
	string(LengthMedium): true,
	string(LengthLong):   true,
}

// Lengths returns the list of valid target length strings.
func Lengths() []string {
	return []string{string(LengthAuto), string(LengthShort), string(LengthMedium), string(LengthLong)}
}

// Valid reports whether l is a recognized target length.
func (l TargetLength) Valid() bool {
	return validLengths[string(l)]
}

// Cap returns the word cap for the target length; 0 means uncapped.
func (l TargetLength) Cap() int {
	switch l {
	case LengthShort:
		return 150
	case LengthMedium:
		return 400
	case LengthLong:
		return 900
	default:
		return 0
	}
}

// ParseLength converts a user-supplied string into a TargetLength.
func ParseLength(s string) (TargetLength, error) {
	l := TargetLength(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", ErrUnknownLength
	}
	return l, nil
}

// MinSourceWords is the smallest input the compression pipeline accepts.
// Shorter documents do not have enough signal to compress meaningfully.
const MinSourceWords = 50

// SourceDocument is raw input text headed into compression.
type SourceDocument struct {
	// Path identifies the origin for logs and batch reports; empty for stdin.
	Path    string
	Content string
}

// WordCount returns the number of words in the source content.
func (d SourceDocument) WordCount() int {
	return text.WordCount(d.Content)
}

// Validate checks the source against input requirements.
func (d SourceDocument) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyInput
	}
	if d.WordCount() < MinSourceWords {
		return ErrInputTooShort
	}
	return nil
}

// ValidateRatio checks a compression ratio target. Valid targets are in
// (0, 1]: the compressed size as a fraction of the original.
func ValidateRatio(r float64) error {
	if r <= 0 || r > 1 {
		return ErrInvalidRatio
	}
	return nil
}

// Statement is one line of an SPR document: a declarative sentence
// expressing a single concept within the format's word bounds.
type Statement struct {
	Text string
	// Concept is the salient term the statement was generated from.
	// Empty for statements parsed back from disk.
	Concept string
}

// WordCount returns the number of words in the statement text.
func (s Statement) WordCount() int {
	return text.WordCount(s.Text)
}

// Metadata describes how an SPR document was produced.
type Metadata struct {
	OriginalWords   int
	CompressedWords int
	// Ratio is CompressedWords / OriginalWords as achieved, not the target.
	Ratio     float64
	Format    Format
	Generated time.Time
	TraceID   string
}

// Document is a compressed sparse priming representation.
type Document struct {
	Statements []Statement
	Meta       Metadata
}

// WordCount returns the total words across all statements.
func (d *Document) WordCount() int {
	total := 0
	for _, s := range d.Statements {
		total += s.WordCount()
	}
	return total
}

// Text returns the statements joined one per line, without metadata.
func (d *Document) Text() string {
	lines := make([]string, len(d.Statements))
	for i, s := range d.Statements {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}

// Validate checks structural integrity: at least one statement, none empty.
func (d *Document) Validate() error {
	if len(d.Statements) == 0 {
		return ErrNoStatements
	}
	for _, s := range d.Statements {
		if strings.TrimSpace(s.Text) == "" {
			return ErrEmptyStatement
		}
	}
	return nil
}

// ExpandedDocument is prose reconstructed from an SPR document.
type ExpandedDocument struct {
	Content   string
	Expansion ExpansionType
	// ExpansionRatio is reconstructed words over compressed words.
	ExpansionRatio float64
	TraceID        string
}

// WordCount reports the reconstructed content's length in words.
func (e ExpandedDocument) WordCount() int {
	return text.WordCount(e.Content)
}
