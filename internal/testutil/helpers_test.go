package testutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFile_CreatesSubdirectories(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "data/graph.gexf", SocialGEXF)

	if filepath.Base(filepath.Dir(path)) != "data" {
		t.Errorf("path = %q, want it under data/", path)
	}
	if got := ReadFile(t, path); got != SocialGEXF {
		t.Error("content mismatch")
	}
}

func TestGEXFFile(t *testing.T) {
	a := GEXFFile(t, SocialGEXF)
	b := GEXFFile(t, AirlinesGEXF)

	if a == b {
		t.Fatal("each call should get its own directory")
	}
	if !strings.HasSuffix(a, "graph.gexf") {
		t.Errorf("path = %q", a)
	}
	if !strings.Contains(ReadFile(t, b), "<gexf") {
		t.Error("fixture not written")
	}
}
