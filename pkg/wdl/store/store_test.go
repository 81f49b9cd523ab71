package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	sql, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sql.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sql,
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateRun(ctx, "run-1", "file:///doc.wdl"); err != nil {
				t.Fatalf("CreateRun: %v", err)
			}
			r, err := s.GetRun(ctx, "run-1")
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if r.Status != Pending {
				t.Errorf("Status = %q, want %q", r.Status, Pending)
			}

			if err := s.MarkRunning(ctx, "run-1"); err != nil {
				t.Fatalf("MarkRunning: %v", err)
			}
			r, _ = s.GetRun(ctx, "run-1")
			if r.Status != Running {
				t.Errorf("Status = %q, want %q", r.Status, Running)
			}

			outputs := map[string]any{"greeting": "hello"}
			if err := s.CompleteRun(ctx, "run-1", outputs); err != nil {
				t.Fatalf("CompleteRun: %v", err)
			}
			r, _ = s.GetRun(ctx, "run-1")
			if r.Status != Succeeded {
				t.Errorf("Status = %q, want %q", r.Status, Succeeded)
			}
			if r.Outputs["greeting"] != "hello" {
				t.Errorf("Outputs[greeting] = %v, want %q", r.Outputs["greeting"], "hello")
			}
			if r.FinishedAt.IsZero() {
				t.Error("FinishedAt not set after CompleteRun")
			}
		})
	}
}

func TestStoreFailRun(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateRun(ctx, "run-2", "file:///doc.wdl"); err != nil {
				t.Fatalf("CreateRun: %v", err)
			}
			if err := s.FailRun(ctx, "run-2", "task exited 1"); err != nil {
				t.Fatalf("FailRun: %v", err)
			}
			r, err := s.GetRun(ctx, "run-2")
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if r.Status != Failed {
				t.Errorf("Status = %q, want %q", r.Status, Failed)
			}
			if r.ErrorText != "task exited 1" {
				t.Errorf("ErrorText = %q, want %q", r.ErrorText, "task exited 1")
			}
		})
	}
}

func TestStoreListRunsReturnsEveryRun(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"a", "b", "c"} {
				if err := s.CreateRun(ctx, id, "file:///doc.wdl"); err != nil {
					t.Fatalf("CreateRun(%s): %v", id, err)
				}
			}
			runs, err := s.ListRuns(ctx)
			if err != nil {
				t.Fatalf("ListRuns: %v", err)
			}
			if len(runs) != 3 {
				t.Fatalf("len(runs) = %d, want 3", len(runs))
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.GetRun(context.Background(), "missing"); err == nil {
				t.Error("GetRun on missing run: expected error, got nil")
			}
		})
	}
}
