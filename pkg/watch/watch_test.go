package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const cleanWDL = `version 1.0

workflow w {
  input {
    Int n
  }
  output {
    Int doubled = n * 2
  }
}
`

const brokenWDL = `version 1.0

workflow w {
  output {
    Int x = 1.5
  }
}
`

func TestWatcherReportsBrokenDocumentOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.wdl")
	if err := os.WriteFile(path, []byte(cleanWDL), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(brokenWDL), 0o644); err != nil {
		t.Fatalf("rewriting file: %v", err)
	}

	select {
	case r := <-w.Reports:
		if r.Path != path {
			t.Errorf("Path = %q, want %q", r.Path, path)
		}
		if r.Err == nil {
			t.Error("expected a type error for the broken document, got nil")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a watch report")
	}
}

func TestWatcherSkipsNonWDLFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case r := <-w.Reports:
		t.Fatalf("expected no report for a non-.wdl file, got %+v", r)
	case <-time.After(300 * time.Millisecond):
	}
}
