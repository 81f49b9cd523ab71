// Package containers implements the container backend collaborator that
// the task executor (pkg/wdl/task) dispatches to (spec.md 4.6, 6): given a
// run directory and a runtime spec, run "bash command.sh" to completion and
// report its exit code plus captured stdout/stderr.
package containers

import "context"

// Mount binds a host path into the container at ContainerPath.
type Mount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// RunSpec describes one task invocation (spec.md 4.6 step 6).
type RunSpec struct {
	RunID       string
	Image       string
	WorkDir     string // host path mounted read-write at WorkingDir
	WorkingDir  string // container path, e.g. "/work"
	Mounts      []Mount
	Command     []string
	Env         []string
	CPUs        float64
	MemoryBytes int64
}

// RunResult is what the backend reports once the container exits.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Backend is the container backend interface (spec.md 6): anything that can
// run a command to completion and report its outcome. DockerBackend talks to
// a real daemon; LocalBackend runs the command as a bare subprocess for
// container.enabled: false configs and Docker-less test environments.
type Backend interface {
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
	Available() bool
	Close() error
}
