package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindRootByManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := FindRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	if root.Marker != ManifestName {
		t.Errorf("marker = %q", root.Marker)
	}
}

func TestFindRootWalksUp(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "src", "analysis", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stax.lock"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := FindRoot(nested)
	if err != nil {
		t.Fatal(err)
	}
	if root.Marker != "stax.lock" {
		t.Errorf("marker = %q", root.Marker)
	}
	want, _ := filepath.EvalSymlinks(dir)
	if root.Dir != want {
		t.Errorf("dir = %q, want %q", root.Dir, want)
	}
}

func TestFindRootManifestBeatsLockfile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{ManifestName, "stax.lock"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	root, err := FindRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	if root.Marker != ManifestName {
		t.Errorf("marker = %q, want manifest precedence", root.Marker)
	}
}

func TestFindRootInnerProjectWins(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "inner")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{outer, inner} {
		if err := os.WriteFile(filepath.Join(dir, ManifestName), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	root, err := FindRoot(inner)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(inner)
	if root.Dir != want {
		t.Errorf("dir = %q, want inner project %q", root.Dir, want)
	}
}

func TestFindRootNoProject(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	if !errors.Is(err, ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
}
