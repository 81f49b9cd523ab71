// Package config loads the flowy configuration file (spec.md 6,
// "Configuration"): a YAML document, read with gopkg.in/yaml.v3 the way
// the teacher's pkg/parser and pkg/api use it throughout, with graceful
// defaults the way cmd/gcw-emulator/main.go wires cobra flags and
// environment variables into server construction. Absence of a config
// file is not an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Container configures the container backend a run executes tasks with.
type Container struct {
	Backend string `yaml:"backend"` // "docker" or "local"
	Enabled bool   `yaml:"enabled"`
}

// Config is the top-level flowy configuration (spec.md 6).
type Config struct {
	WorkDir          string            `yaml:"work_dir"`
	MaxParallelTasks int               `yaml:"max_parallel_tasks"`
	TaskTimeoutSecs  int               `yaml:"task_timeout_secs"`
	CopyInputFiles   bool              `yaml:"copy_input_files"`
	Container        Container         `yaml:"container"`
	EnvVars          map[string]string `yaml:"env_vars"`
}

// Default returns the configuration flowy runs with when no config file
// is found.
func Default() Config {
	return Config{
		WorkDir:          defaultWorkDir(),
		MaxParallelTasks: 20,
		TaskTimeoutSecs:  0, // loaded but not applied: tasks run with no wall-clock limit
		CopyInputFiles:   false,
		Container: Container{
			Backend: "local",
			Enabled: true,
		},
		EnvVars: map[string]string{},
	}
}

func defaultWorkDir() string {
	if d, err := os.UserCacheDir(); err == nil {
		return d + "/flowy"
	}
	return "./.flowy"
}

// pathEnvVar is the environment variable a config file path can be
// supplied through when no --config flag is given.
const pathEnvVar = "FLOWY_CONFIG"

// Resolve returns the config file path to load: flagPath if non-empty,
// else the FLOWY_CONFIG environment variable, else "" (no file).
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(pathEnvVar)
}

// Load reads and parses the YAML config file at path, merged over
// Default(). An empty path returns Default() unchanged. A path that does
// not exist is not an error: flowy falls back to defaults exactly as if
// no path had been given.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if cfg.MaxParallelTasks <= 0 {
		cfg.MaxParallelTasks = Default().MaxParallelTasks
	}
	if cfg.Container.Backend == "" {
		cfg.Container.Backend = Default().Container.Backend
	}
	return cfg, nil
}
