package containers

import (
	"bytes"
	"context"
	"os/exec"
)

// LocalBackend runs the command as a bare subprocess with no container
// isolation, for container.enabled: false configs and environments without
// a Docker daemon. Mounts are ignored since the command already sees the
// real filesystem.
type LocalBackend struct{}

// NewLocalBackend returns a Backend that is always available.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

func (b *LocalBackend) Available() bool { return true }

func (b *LocalBackend) Close() error { return nil }

func (b *LocalBackend) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if len(spec.Command) == 0 {
		return &RunResult{ExitCode: 0}, nil
	}
	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.WorkDir
	cmd.Env = spec.Env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, err
		}
	}

	return &RunResult{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
