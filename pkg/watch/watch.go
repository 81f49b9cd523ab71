// Package watch implements the document-directory watcher (spec.md 6,
// SPEC_FULL.md C.4): recursively watch a directory for changed `.wdl`
// files and re-run `flowy check` semantics against each. Grounded on
// ternarybob-iter's pkg/index.Watcher (fsnotify, a debounce map drained
// by a ticker) and the teacher's WatchDir, which loads workflow files
// from a directory at startup; this generalizes that one-shot load into
// a standing watch loop over WDL documents instead of GCP Workflows YAML.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bioflowy/flowy/pkg/wdl/document"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Report is what one reconciliation of a .wdl file produced.
type Report struct {
	Path string
	Err  error // nil on a clean type-check
}

// Watcher recursively watches a directory for changed .wdl files and
// reports each one's check result on Reports.
type Watcher struct {
	root    string
	debounce time.Duration
	fsw     *fsnotify.Watcher
	Reports chan Report

	running bool
	stopCh  chan struct{}
	mu      sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
}

// New creates a Watcher rooted at root, debouncing rapid successive
// writes to the same file by debounce (0 uses a 200ms default).
func New(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		fsw:      fsw,
		Reports:  make(chan Report, 16),
		stopCh:   make(chan struct{}),
		pending:  make(map[string]time.Time),
	}, nil
}

// Start begins watching. It returns once the initial directory walk
// completes; event processing continues on background goroutines until
// Stop is called.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirectories(); err != nil {
		return fmt.Errorf("add directories: %w", err)
	}

	go w.processEvents()
	go w.processDebounced()

	return nil
}

// Stop stops the watcher and closes Reports.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	err := w.fsw.Close()
	close(w.Reports)
	return err
}

func (w *Watcher) addDirectories() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.root, path)
		if w.shouldSkipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) shouldSkipDir(relPath string) bool {
	skip := []string{".git", "vendor", "node_modules"}
	for _, dir := range skip {
		if relPath == dir || strings.HasPrefix(relPath, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".wdl") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) processDebounced() {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processPendingFiles()
		}
	}
}

func (w *Watcher) processPendingFiles() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	now := time.Now()
	for path, ts := range w.pending {
		if now.Sub(ts) < w.debounce {
			continue
		}
		delete(w.pending, path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		w.check(path)
	}
}

func (w *Watcher) check(path string) {
	_, err := document.Load(path)
	if err != nil {
		if _, ok := err.(*werrors.MultipleValidation); !ok {
			err = fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	w.Reports <- Report{Path: path, Err: err}
}
