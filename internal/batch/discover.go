package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Eligible reports whether path is input for the given operation:
// compression takes .txt and .md files, decompression takes .spr files.
func Eligible(path string, op Op) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return op == OpCompress
	case ".spr":
		return op == OpDecompress
	}
	return false
}

// Discover resolves a directory or glob pattern into a sorted list of
// eligible files. A directory selects its immediate entries; anything else
// is treated as a glob pattern, so a plain file path matches itself.
func Discover(pattern string, op Op) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		entries, err := os.ReadDir(pattern)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", pattern, err)
		}
		var paths []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if p := filepath.Join(pattern, e.Name()); Eligible(p, op) {
				paths = append(paths, p)
			}
		}
		sort.Strings(paths)
		return paths, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	var paths []string
	for _, m := range matches {
		if info, err := os.Stat(m); err != nil || info.IsDir() {
			continue
		}
		if Eligible(m, op) {
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// outPath derives a destination file from the input path: compression maps
// name.txt to name.spr, decompression maps name.spr to name.txt.
func outPath(in, outDir string, op Op) string {
	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	name := stem + ".txt"
	if op == OpCompress {
		name = stem + ".spr"
	}

	dir := filepath.Dir(in)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, name)
}
