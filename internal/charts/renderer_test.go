package charts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"factorygpt/internal/engine"
)

func TestRenderWritesUniqueArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, err := NewRenderer(dir, "/charts")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	points := []engine.ChartPoint{
		{Label: "MacLine2A", Value: 300},
		{Label: "MacLine2B", Value: 150},
	}

	ref1, err := r.Render("downtime", "MACHINE_NAME", points)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	ref2, err := r.Render("downtime", "MACHINE_NAME", points)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if ref1 == ref2 {
		t.Errorf("Expected unique references per render, got %s twice", ref1)
	}
	if !strings.HasPrefix(ref1, "/charts/downtime_by_machine_name_") {
		t.Errorf("Unexpected reference: %s", ref1)
	}

	name := strings.TrimPrefix(ref1, "/charts/")
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Expected artifact on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty PNG artifact")
	}
}

func TestRenderRejectsEmptyPoints(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(t.TempDir(), "/charts")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	if _, err := r.Render("downtime", "MACHINE_NAME", nil); err == nil {
		t.Fatal("Expected error for empty point set")
	}
}
