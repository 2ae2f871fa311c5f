// Package testutil provides fixtures and helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to dir/name, creating parent directories, and
// returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// GEXFFile writes a fixture to a fresh temp dir as graph.gexf.
func GEXFFile(t *testing.T, fixture string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "graph.gexf", fixture)
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
