// Package pathguard canonicalizes and allow-lists filesystem paths
// referenced by WDL input bindings and I/O stdlib functions, per spec.md
// 4.8: every read must resolve inside the task's working directory or its
// canonicalized set of supplied input paths.
package pathguard

import (
	"os"
	"path/filepath"

	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Guard holds the allow-list for one task run: its own working directory
// (always readable/writable) plus the canonicalized paths of every File/
// Directory input supplied to it.
type Guard struct {
	workDir string
	allowed map[string]bool
}

// New creates a Guard rooted at workDir with no extra allowed paths.
func New(workDir string) (*Guard, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}
	return &Guard{workDir: abs, allowed: map[string]bool{}}, nil
}

// CanonicalizeInput resolves a File/Directory input path relative to base,
// canonicalizes it, verifies it exists, and adds it to the allow-list
// (spec.md 4.8, "Input binding"). Fails with Input error if the path does
// not exist.
func (g *Guard) CanonicalizeInput(base, raw string) (string, *werrors.WDLError) {
	p := raw
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", werrors.NewInputError(nil, "cannot resolve path %q: %s", raw, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", werrors.NewInputError(nil, "input path %q does not exist", raw)
		}
		return "", werrors.NewInputError(nil, "cannot canonicalize path %q: %s", raw, err)
	}
	g.allowed[resolved] = true
	return resolved, nil
}

// Check verifies path is readable: either inside the run's working
// directory, or previously allow-listed via CanonicalizeInput. Paths are
// compared after canonicalization to defeat ".." tricks (spec.md 4.8,
// "Access restriction").
func (g *Guard) Check(path string) *werrors.WDLError {
	abs, err := filepath.Abs(path)
	if err != nil {
		return werrors.NewInputError(nil, "cannot resolve path %q: %s", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return werrors.NewInputError(nil, "path %q does not exist", path)
		}
		resolved = abs
	}
	if g.within(resolved, g.workDir) {
		return nil
	}
	if g.allowed[resolved] {
		return nil
	}
	return werrors.NewInputError(nil, "path %q is outside the run's allow-list", path)
}

func (g *Guard) within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (len(rel) > 0 && rel[0] != '.' && rel != "..")
}

// WorkDir returns the task run directory this guard is rooted at.
func (g *Guard) WorkDir() string { return g.workDir }

// AllowedPaths returns every canonicalized input path currently permitted,
// for diagnostics.
func (g *Guard) AllowedPaths() []string {
	out := make([]string, 0, len(g.allowed))
	for p := range g.allowed {
		out = append(out, p)
	}
	return out
}
