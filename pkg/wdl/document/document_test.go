package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func TestLoadSourceCleanDocument(t *testing.T) {
	src := `
version 1.0
workflow w {
  input { Int n }
  output { Int doubled = n * 2 }
}
`
	loaded, err := LoadSource(src, "inline.wdl")
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if loaded.Doc.Workflow == nil {
		t.Fatal("expected a parsed workflow")
	}
	if !loaded.Result.CompleteCalls {
		t.Error("CompleteCalls = false, want true (no calls)")
	}
}

func TestLoadSourceTypeMismatch(t *testing.T) {
	src := `
version 1.0
workflow w {
  Int x = 1.5
}
`
	_, err := LoadSource(src, "inline.wdl")
	if err == nil {
		t.Fatal("expected a type-check error")
	}
	if _, ok := err.(*werrors.MultipleValidation); !ok {
		t.Fatalf("err = %T, want *werrors.MultipleValidation", err)
	}
}

func TestLoadReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.wdl")
	src := "version 1.0\nworkflow w {\n  output { Int one = 1 }\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Doc.Workflow.Name != "w" {
		t.Errorf("workflow name = %q, want %q", loaded.Doc.Workflow.Name, "w")
	}
}
