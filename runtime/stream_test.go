package runtime

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDrainLogIncremental(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var out bytes.Buffer

	// Missing file keeps the offset put.
	if off := drainLog(path, 0, &out); off != 0 {
		t.Errorf("offset = %d", off)
	}

	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	off := drainLog(path, 0, &out)
	if off != 6 || out.String() != "first\n" {
		t.Errorf("off = %d, out = %q", off, out.String())
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	off = drainLog(path, off, &out)
	if off != 13 || out.String() != "first\nsecond\n" {
		t.Errorf("off = %d, out = %q", off, out.String())
	}
}

func TestFollowLogDrainsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte("tail me\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	followLog(ctx, path, &out)

	if out.String() != "tail me\n" {
		t.Errorf("out = %q", out.String())
	}
}
