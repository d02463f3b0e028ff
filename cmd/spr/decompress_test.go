package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecompressCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.spr")
	writeFile(t, path, sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
		"Masons repaired the northern causeway before the spring floods arrived",
	))

	out, _, err := runCLI(t, "", "decompress", path)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}

	for _, want := range []string{
		"# SPR: 20 words",
		"# Reconstructed: 66 words",
		"# Expansion ratio: 3.30",
		"harbor granary",
		"northern causeway",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDecompressCommand_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.spr")
	outPath := filepath.Join(dir, "doc.txt")
	writeFile(t, path, sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
	))

	stdout, stderr, err := runCLI(t, "", "decompress", path, "-o", outPath)
	if err != nil {
		t.Fatalf("decompress -o: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout should stay empty when writing to a file, got %q", stdout)
	}
	if !strings.Contains(stderr, "wrote "+outPath) {
		t.Errorf("stderr missing the written path:\n%s", stderr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "harbor granary") {
		t.Errorf("reconstruction missing from output file:\n%s", data)
	}
	if strings.Contains(string(data), "# Reconstructed") {
		t.Error("output file should hold prose only, found header lines")
	}
}

func TestDecompressCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.spr")
	empty := filepath.Join(dir, "empty.spr")
	writeFile(t, good, sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
	))
	writeFile(t, empty, sprFixture())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no statements", []string{"decompress", empty}, "no statements"},
		{"unknown expansion", []string{"decompress", good, "--expansion", "gigantic"}, "unknown expansion type"},
		{"unknown length", []string{"decompress", good, "--length", "huge"}, "unknown target length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
