package pathguard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckAllowsWorkDir(t *testing.T) {
	dir := t.TempDir()
	g, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if werr := g.Check(f); werr != nil {
		t.Fatalf("expected work dir path allowed: %v", werr)
	}
}

func TestCheckRejectsOutsidePath(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	g, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(other, "secret.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if werr := g.Check(f); werr == nil {
		t.Fatal("expected outside-allow-list path to be rejected")
	}
}

func TestCanonicalizeInputAddsToAllowList(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	g, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(other, "in.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	resolved, werr := g.CanonicalizeInput(other, "in.txt")
	if werr != nil {
		t.Fatalf("canonicalize: %v", werr)
	}
	if werr := g.Check(resolved); werr != nil {
		t.Fatalf("expected canonicalized input to be allowed: %v", werr)
	}
}

func TestCanonicalizeInputMissingFails(t *testing.T) {
	dir := t.TempDir()
	g, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, werr := g.CanonicalizeInput(dir, "does-not-exist.txt"); werr == nil {
		t.Fatal("expected Input error for missing path")
	}
}
