package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.spr")
	writeFile(t, path, sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
		"Masons repaired the northern causeway before the spring floods arrived",
	))

	out, _, err := runCLI(t, "", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	for _, want := range []string{
		"2 statements, 20 words, format standard",
		"recomputed ratio 0.10 (20/200 words)",
		"bounds: all statements within 8-15 words",
		"ok",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "warning:") {
		t.Errorf("consistent document should not warn:\n%s", out)
	}
}

func TestValidateCommand_HeaderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.spr")
	fixture := strings.Replace(sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
		"Masons repaired the northern causeway before the spring floods arrived",
	), "# Compressed: 20 words", "# Compressed: 25 words", 1)
	writeFile(t, path, fixture)

	out, _, err := runCLI(t, "", "validate", path)
	if err != nil {
		t.Fatalf("warnings must not fail validation: %v", err)
	}
	if !strings.Contains(out, "warning: header says 25 compressed words, statements hold 20") {
		t.Errorf("missing header mismatch warning:\n%s", out)
	}
}

func TestValidateCommand_NoStatements(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.spr")
	writeFile(t, path, sprFixture())

	_, _, err := runCLI(t, "", "validate", path)
	if err == nil {
		t.Fatal("expected an error for a document without statements")
	}
	if !strings.Contains(err.Error(), "no statements") {
		t.Errorf("error = %v, want no-statements", err)
	}
}

func TestMetricsCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.spr")
	writeFile(t, path, sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
		"Masons repaired the northern causeway before the spring floods arrived",
	))

	out, _, err := runCLI(t, "", "metrics", path)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	for _, want := range []string{
		"header: 200 original words, 20 compressed words, ratio 0.10, format standard",
		"recomputed: 2 statements, 20 words, ratio 0.10, 0 bound violations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMetricsCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.spr")
	writeFile(t, path, sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
		"Masons repaired the northern causeway before the spring floods arrived",
	))

	out, _, err := runCLI(t, "", "metrics", path, "--json")
	if err != nil {
		t.Fatalf("metrics --json: %v", err)
	}

	var got metricsOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if got.Path != path {
		t.Errorf("path = %q, want %q", got.Path, path)
	}
	if got.Header.OriginalWords != 200 || got.Header.CompressedWords != 20 {
		t.Errorf("header words = %d/%d, want 200/20", got.Header.OriginalWords, got.Header.CompressedWords)
	}
	if got.Report.Statements != 2 {
		t.Errorf("report statements = %d, want 2", got.Report.Statements)
	}
	if got.Report.BoundViolations != 0 {
		t.Errorf("bound violations = %d, want 0", got.Report.BoundViolations)
	}
}
