package containers

import (
	"context"
	"testing"
)

func TestLocalBackendRunsCommand(t *testing.T) {
	b := NewLocalBackend()
	if !b.Available() {
		t.Fatal("local backend should always be available")
	}

	dir := t.TempDir()
	res, err := b.Run(context.Background(), RunSpec{
		WorkDir: dir,
		Command: []string{"sh", "-c", "echo hi; echo bye 1>&2"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if res.Stdout != "hi\n" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.Stderr != "bye\n" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestLocalBackendReportsNonZeroExit(t *testing.T) {
	b := NewLocalBackend()
	res, err := b.Run(context.Background(), RunSpec{
		WorkDir: t.TempDir(),
		Command: []string{"sh", "-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
}
