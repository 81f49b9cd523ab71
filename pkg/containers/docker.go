package containers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const containerPrefix = "flowy-"

// DockerBackend runs tasks in Docker containers, one container per run.
type DockerBackend struct {
	cli       *client.Client
	available bool
}

// NewDockerBackend creates a Docker-backed Backend. If no daemon can be
// reached it returns a Backend with Available() == false rather than an
// error, so callers can fall back to LocalBackend.
func NewDockerBackend() *DockerBackend {
	cli, err := createDockerClient()
	if err != nil {
		return &DockerBackend{available: false}
	}
	return &DockerBackend{cli: cli, available: true}
}

// createDockerClient tries the environment-configured daemon, then a few
// common socket locations, mirroring Docker Desktop / Colima setups.
func createDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, perr := cli.Ping(ctx); perr == nil {
			return cli, nil
		}
		cli.Close()
	}

	sockets := []string{
		"unix://" + os.Getenv("HOME") + "/.docker/run/docker.sock",
		"unix:///var/run/docker.sock",
		"unix://" + os.Getenv("HOME") + "/.colima/docker.sock",
	}
	for _, sock := range sockets {
		cli, err := client.NewClientWithOpts(client.WithHost(sock), client.WithAPIVersionNegotiation())
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, perr := cli.Ping(ctx)
		cancel()
		if perr == nil {
			return cli, nil
		}
		cli.Close()
	}
	return nil, fmt.Errorf("could not connect to Docker daemon")
}

func (b *DockerBackend) Available() bool { return b.available }

func (b *DockerBackend) Close() error {
	if b.cli != nil {
		return b.cli.Close()
	}
	return nil
}

// Run creates a container for the run, starts it, waits for completion, and
// captures its logs. The container is always removed afterwards.
func (b *DockerBackend) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if !b.available {
		return nil, fmt.Errorf("docker backend not available")
	}

	if err := b.ensureImage(ctx, spec.Image); err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", spec.Image, err)
	}

	mounts := make([]mount.Mount, 0, len(spec.Mounts)+1)
	mounts = append(mounts, mount.Mount{
		Type:   mount.TypeBind,
		Source: spec.WorkDir,
		Target: spec.WorkingDir,
	})
	for _, m := range spec.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.HostPath,
			Target:   m.ContainerPath,
			ReadOnly: m.ReadOnly,
		})
	}

	containerCfg := &container.Config{
		Image:      spec.Image,
		WorkingDir: spec.WorkingDir,
		Env:        spec.Env,
		Cmd:        spec.Command,
		Labels: map[string]string{
			"flowy.run": spec.RunID,
		},
	}

	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Resources: container.Resources{
			NanoCPUs: int64(spec.CPUs * 1e9),
			Memory:   spec.MemoryBytes,
		},
	}

	name := containerPrefix + spec.RunID
	resp, err := b.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	defer func() {
		_ = b.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := b.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := b.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("failed waiting for container: %w", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	logs, err := b.cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr strings.Builder
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to demux logs: %w", err)
	}

	return &RunResult{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// ensureImage pulls an image if it isn't present locally.
func (b *DockerBackend) ensureImage(ctx context.Context, imageName string) error {
	_, _, err := b.cli.ImageInspectWithRaw(ctx, imageName)
	if err == nil {
		return nil
	}
	reader, err := b.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}
