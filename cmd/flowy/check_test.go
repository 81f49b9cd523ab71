package main

import (
	"os"
	"path/filepath"
	"testing"
)

const cleanDoc = `version 1.0

workflow w {
  input {
    Int n
  }
  output {
    Int doubled = n * 2
  }
}
`

const brokenDoc = `version 1.0

workflow w {
  output {
    Int x = "not an int"
  }
}
`

func TestRunCheckCleanDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.wdl")
	if err := os.WriteFile(path, []byte(cleanDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := runCheck(path); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
}
