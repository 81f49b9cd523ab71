package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxParallelTasks != Default().MaxParallelTasks {
		t.Errorf("MaxParallelTasks = %d, want default", cfg.MaxParallelTasks)
	}
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Container.Backend != Default().Container.Backend {
		t.Errorf("Container.Backend = %q, want default", cfg.Container.Backend)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowy.yaml")
	yaml := `
work_dir: /tmp/flowy-runs
max_parallel_tasks: 4
container:
  backend: docker
  enabled: true
env_vars:
  FOO: bar
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkDir != "/tmp/flowy-runs" {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}
	if cfg.MaxParallelTasks != 4 {
		t.Errorf("MaxParallelTasks = %d, want 4", cfg.MaxParallelTasks)
	}
	if cfg.Container.Backend != "docker" {
		t.Errorf("Container.Backend = %q, want docker", cfg.Container.Backend)
	}
	if cfg.EnvVars["FOO"] != "bar" {
		t.Errorf("EnvVars[FOO] = %q, want bar", cfg.EnvVars["FOO"])
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("explicit.yaml"); got != "explicit.yaml" {
		t.Errorf("Resolve with flag = %q, want explicit.yaml", got)
	}

	t.Setenv(pathEnvVar, "from-env.yaml")
	if got := Resolve(""); got != "from-env.yaml" {
		t.Errorf("Resolve from env = %q, want from-env.yaml", got)
	}

	os.Unsetenv(pathEnvVar)
	if got := Resolve(""); got != "" {
		t.Errorf("Resolve with nothing set = %q, want empty", got)
	}
}
