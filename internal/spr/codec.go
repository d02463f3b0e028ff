package spr

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Metadata header prefixes in the persisted SPR format. Header lines start
// with '#' and precede the statements; readers ignore headers they do not
// recognize so the format can grow without breaking older parsers.
const (
	headerOriginal   = "# Original:"
	headerCompressed = "# Compressed:"
	headerRatio      = "# Ratio:"
	headerFormat     = "# Format:"
	headerGenerated  = "# Generated:"
	headerTraceID    = "# Trace ID:"
)

// Encode renders a document in the persisted SPR format: metadata headers,
// a blank separator, then one statement per line in order.
func Encode(d *Document) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "%s %d words\n", headerOriginal, d.Meta.OriginalWords)
	fmt.Fprintf(&b, "%s %d words\n", headerCompressed, d.Meta.CompressedWords)
	fmt.Fprintf(&b, "%s %.2f\n", headerRatio, d.Meta.Ratio)
	fmt.Fprintf(&b, "%s %s\n", headerFormat, d.Meta.Format)
	if !d.Meta.Generated.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", headerGenerated, d.Meta.Generated.UTC().Format(time.RFC3339))
	}
	if d.Meta.TraceID != "" {
		fmt.Fprintf(&b, "%s %s\n", headerTraceID, d.Meta.TraceID)
	}
	b.WriteByte('\n')

	for _, s := range d.Statements {
		b.WriteString(s.Text)
		b.WriteByte('\n')
	}

	return b.Bytes()
}

// Parse reads a persisted SPR document. Blank lines are skipped, '#' lines
// are treated as metadata (unknown headers ignored, malformed values
// dropped), and every other line is a statement. A file with no statement
// lines fails with ErrNoStatements.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			parseHeader(line, &doc.Meta)
			continue
		}
		doc.Statements = append(doc.Statements, Statement{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan spr document: %w", err)
	}

	if len(doc.Statements) == 0 {
		return nil, ErrNoStatements
	}
	return doc, nil
}

// parseHeader fills in metadata from a recognized header line. Values that
// fail to parse leave the field at its zero value.
func parseHeader(line string, meta *Metadata) {
	switch {
	case strings.HasPrefix(line, headerOriginal):
		meta.OriginalWords = parseWordCount(line, headerOriginal)
	case strings.HasPrefix(line, headerCompressed):
		meta.CompressedWords = parseWordCount(line, headerCompressed)
	case strings.HasPrefix(line, headerRatio):
		if v, err := strconv.ParseFloat(headerValue(line, headerRatio), 64); err == nil {
			meta.Ratio = v
		}
	case strings.HasPrefix(line, headerFormat):
		if f := Format(headerValue(line, headerFormat)); f.Valid() {
			meta.Format = f
		}
	case strings.HasPrefix(line, headerGenerated):
		if t, err := time.Parse(time.RFC3339, headerValue(line, headerGenerated)); err == nil {
			meta.Generated = t
		}
	case strings.HasPrefix(line, headerTraceID):
		meta.TraceID = headerValue(line, headerTraceID)
	}
}

func headerValue(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}

func parseWordCount(line, prefix string) int {
	value := headerValue(line, prefix)
	value = strings.TrimSpace(strings.TrimSuffix(value, "words"))
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
