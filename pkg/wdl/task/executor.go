// Package task implements the task executor (spec.md 4.6): given a task
// and its inputs, it materializes a run directory, evaluates the command
// template and runtime spec, dispatches to a container backend, and
// evaluates the output declarations against the captured stdout/stderr.
package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bioflowy/flowy/pkg/containers"
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/bindings"
	"github.com/bioflowy/flowy/pkg/wdl/eval"
	"github.com/bioflowy/flowy/pkg/wdl/pathguard"
	"github.com/bioflowy/flowy/pkg/wdl/stdlib"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Config carries the ambient settings the executor falls back on when a
// task's runtime section leaves them unspecified (spec.md 6,
// "Configuration").
type Config struct {
	DefaultImage     string
	ContainerWorkDir string // container-side mount point for work/, default "/work"
	EnvVars          map[string]string
}

func (c Config) withDefaults() Config {
	if c.DefaultImage == "" {
		c.DefaultImage = "ubuntu:22.04"
	}
	if c.ContainerWorkDir == "" {
		c.ContainerWorkDir = "/work"
	}
	return c
}

// Result is TaskResult from spec.md 4.6 step 9.
type Result struct {
	Outputs    map[string]values.Value
	StdoutPath string
	StderrPath string
	ExitStatus int
	Duration   time.Duration
	WorkDir    string
}

// Executor runs tasks against a container backend.
type Executor struct {
	Backend containers.Backend
	Config  Config
}

func New(backend containers.Backend, cfg Config) *Executor {
	return &Executor{Backend: backend, Config: cfg.withDefaults()}
}

// Run executes t with the given input values under runDir, which must not
// yet exist. inputBase is the directory relative File/Directory input
// paths are resolved against (typically the caller's working directory).
func (ex *Executor) Run(ctx context.Context, t *ast.Task, inputs map[string]values.Value, runDir, runID, inputBase string) (*Result, *werrors.WDLError) {
	dirs := []string{
		filepath.Join(runDir, "inputs"),
		filepath.Join(runDir, "work"),
		filepath.Join(runDir, "outputs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, werrors.NewInputError(nil, "cannot create run directory %q: %s", d, err)
		}
	}
	workDir := dirs[1]

	// Rooted at runDir, not work/: the run's "working directory" per
	// spec.md 4.8/6 also covers stdout.txt/stderr.txt, which live at the
	// run directory's root alongside work/.
	guard, gerr := pathguard.New(runDir)
	if gerr != nil {
		return nil, werrors.NewInputError(nil, "cannot root path guard at %q: %s", runDir, gerr)
	}

	preludeIO := &stdlib.IOContext{Guard: guard, WorkDir: workDir}
	reg := stdlib.NewRegistry(preludeIO)

	env := bindings.Root()
	for _, decl := range t.Inputs {
		val, err := ex.bindInput(decl, inputs, env, reg, guard, inputBase)
		if err != nil {
			return nil, err
		}
		env = env.Bind(decl.Name, val)
	}
	for _, decl := range t.PostInputs {
		if decl.Expr == nil {
			return nil, werrors.NewValidationError(nil, "task %s: post-input declaration %s has no initializer", t.Name, decl.Name)
		}
		raw, err := eval.Eval(decl.Expr, env, reg)
		if err != nil {
			return nil, err
		}
		coerced, err := raw.Coerce(decl.DeclType)
		if err != nil {
			return nil, err
		}
		env = env.Bind(decl.Name, coerced)
	}

	commandVal, err := eval.Eval(t.Command, env, reg)
	if err != nil {
		return nil, err
	}
	script := strings.TrimSpace(commandVal.AsString()) + "\n"
	if err := os.WriteFile(filepath.Join(workDir, "command.sh"), []byte(script), 0o755); err != nil {
		return nil, werrors.NewInputError(nil, "cannot write command.sh: %s", err)
	}

	runtimeVals := map[string]values.Value{}
	for key, expr := range t.Runtime {
		v, err := eval.Eval(expr, env, reg)
		if err != nil {
			return nil, err
		}
		runtimeVals[key] = v
	}
	spec, err := ex.buildRunSpec(runID, workDir, runtimeVals, guard)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runResult, rerr := ex.Backend.Run(ctx, spec)
	duration := time.Since(start)
	if rerr != nil {
		return nil, werrors.NewEvalError(nil, "container backend failed: %s", rerr)
	}

	stdoutPath := filepath.Join(runDir, "stdout.txt")
	stderrPath := filepath.Join(runDir, "stderr.txt")
	if werr := os.WriteFile(stdoutPath, []byte(runResult.Stdout), 0o644); werr != nil {
		return nil, werrors.NewInputError(nil, "cannot write stdout.txt: %s", werr)
	}
	if werr := os.WriteFile(stderrPath, []byte(runResult.Stderr), 0o644); werr != nil {
		return nil, werrors.NewInputError(nil, "cannot write stderr.txt: %s", werr)
	}

	if runResult.ExitCode != 0 {
		return nil, werrors.NewRunFailedError(runID, runResult.ExitCode, script)
	}

	outIO := &stdlib.IOContext{Guard: guard, WorkDir: workDir, StdoutPath: stdoutPath, StderrPath: stderrPath}
	outReg := stdlib.NewRegistry(outIO)
	outputs := make(map[string]values.Value, len(t.Outputs))
	outEnv := env
	for _, decl := range t.Outputs {
		raw, err := eval.Eval(decl.Expr, outEnv, outReg)
		if err != nil {
			return nil, err
		}
		resolved := resolveOutputPaths(raw, workDir)
		coerced, err := resolved.Coerce(decl.DeclType)
		if err != nil {
			return nil, err
		}
		outEnv = outEnv.Bind(decl.Name, coerced)
		outputs[decl.Name] = coerced
	}

	return &Result{
		Outputs:    outputs,
		StdoutPath: stdoutPath,
		StderrPath: stderrPath,
		ExitStatus: runResult.ExitCode,
		Duration:   duration,
		WorkDir:    workDir,
	}, nil
}

// bindInput resolves one task input: the caller-supplied value if present,
// else the declaration's default expression, else Null for an optional
// declaration, else a missing-input failure. File/Directory values are
// canonicalized and allow-listed (spec.md 4.8).
func (ex *Executor) bindInput(decl *ast.Decl, inputs map[string]values.Value, env *bindings.Bindings, reg *stdlib.Registry, guard *pathguard.Guard, inputBase string) (values.Value, *werrors.WDLError) {
	supplied, ok := inputs[decl.Name]
	var raw values.Value
	if ok {
		raw = supplied
	} else if decl.Expr != nil {
		v, err := eval.Eval(decl.Expr, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		raw = v
	} else if decl.DeclType.Optional {
		raw = values.Null(decl.DeclType)
	} else {
		return values.Value{}, werrors.NewInputError(nil, "task missing required input %q", decl.Name)
	}

	coerced, err := raw.Coerce(decl.DeclType)
	if err != nil {
		return values.Value{}, err
	}
	return CanonicalizeFileValues(coerced, guard, inputBase)
}

// CanonicalizeFileValues walks a value, resolving every File/Directory leaf
// through the path guard's input canonicalizer (spec.md 4.8). Non-file
// values pass through unchanged. Exported so pkg/wdl/engine can apply the
// same discipline to workflow-level File inputs before they reach any call.
func CanonicalizeFileValues(v values.Value, guard *pathguard.Guard, base string) (values.Value, *werrors.WDLError) {
	if v.IsNull() {
		return v, nil
	}
	switch v.Type().Kind {
	case types.KFile:
		resolved, err := guard.CanonicalizeInput(base, v.AsString())
		if err != nil {
			return values.Value{}, err
		}
		return values.FileVal(resolved), nil
	case types.KDirectory:
		resolved, err := guard.CanonicalizeInput(base, v.AsString())
		if err != nil {
			return values.Value{}, err
		}
		return values.DirVal(resolved), nil
	case types.KArray:
		elems := v.AsArray()
		out := make([]values.Value, len(elems))
		for i, e := range elems {
			c, err := CanonicalizeFileValues(e, guard, base)
			if err != nil {
				return values.Value{}, err
			}
			out[i] = c
		}
		return values.Array(v.Type().Elem, out), nil
	case types.KMap:
		out := values.NewOrderedMap()
		var outerErr *werrors.WDLError
		v.AsMap().Each(func(k, val values.Value) {
			if outerErr != nil {
				return
			}
			c, err := CanonicalizeFileValues(val, guard, base)
			if err != nil {
				outerErr = err
				return
			}
			out.Set(k, c)
		})
		if outerErr != nil {
			return values.Value{}, outerErr
		}
		return values.Map(v.Type().Key, v.Type().Value, out), nil
	case types.KPair:
		l, err := CanonicalizeFileValues(v.AsPair().Left, guard, base)
		if err != nil {
			return values.Value{}, err
		}
		r, err := CanonicalizeFileValues(v.AsPair().Right, guard, base)
		if err != nil {
			return values.Value{}, err
		}
		return values.Pair(l, r), nil
	}
	return v, nil
}

// resolveOutputPaths makes a File/Directory output's path absolute against
// workDir if the command produced it as a relative path, without adding it
// to the allow-list (it is already inside workDir, which the guard always
// permits).
func resolveOutputPaths(v values.Value, workDir string) values.Value {
	if v.IsNull() {
		return v
	}
	switch v.Type().Kind {
	case types.KFile, types.KDirectory:
		p := v.AsString()
		if !filepath.IsAbs(p) {
			p = filepath.Join(workDir, p)
		}
		if v.Type().Kind == types.KFile {
			return values.FileVal(p)
		}
		return values.DirVal(p)
	case types.KArray:
		elems := v.AsArray()
		out := make([]values.Value, len(elems))
		for i, e := range elems {
			out[i] = resolveOutputPaths(e, workDir)
		}
		return values.Array(v.Type().Elem, out)
	case types.KMap:
		out := values.NewOrderedMap()
		v.AsMap().Each(func(k, val values.Value) { out.Set(k, resolveOutputPaths(val, workDir)) })
		return values.Map(v.Type().Key, v.Type().Value, out)
	case types.KPair:
		return values.Pair(resolveOutputPaths(v.AsPair().Left, workDir), resolveOutputPaths(v.AsPair().Right, workDir))
	}
	return v
}

var memUnits = map[string]float64{
	"b": 1, "kb": 1e3, "mb": 1e6, "gb": 1e9, "tb": 1e12,
	"ki": 1024, "kib": 1024, "mi": 1024 * 1024, "mib": 1024 * 1024,
	"gi": 1024 * 1024 * 1024, "gib": 1024 * 1024 * 1024,
}

// parseMemory parses WDL runtime memory strings like "4 GB" or "512 MiB"
// into a byte count.
func parseMemory(s string) (int64, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && (s[i] == '.' || s[i] == '-' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	numPart := strings.TrimSpace(s[:i])
	unitPart := strings.ToLower(strings.TrimSpace(s[i:]))
	if unitPart == "" {
		unitPart = "b"
	}
	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory value %q", s)
	}
	mult, ok := memUnits[unitPart]
	if !ok {
		return 0, fmt.Errorf("unknown memory unit %q in %q", unitPart, s)
	}
	return int64(n * mult), nil
}

// buildRunSpec collects the container image, cpu/memory requirements, and
// environment variables from the evaluated runtime section (spec.md 4.6
// step 5), and the read-only input mounts from the path guard's allow-list
// (step 6).
func (ex *Executor) buildRunSpec(runID, workDir string, rt map[string]values.Value, guard *pathguard.Guard) (containers.RunSpec, *werrors.WDLError) {
	image := ex.Config.DefaultImage
	if v, ok := rt["docker"]; ok && !v.IsNull() {
		image = v.AsString()
	} else if v, ok := rt["container"]; ok && !v.IsNull() {
		image = v.AsString()
	}

	var cpus float64
	if v, ok := rt["cpu"]; ok && !v.IsNull() {
		switch v.Type().Kind {
		case types.KInt:
			cpus = float64(v.AsInt())
		case types.KFloat:
			cpus = v.AsFloat()
		}
	}

	var memBytes int64
	if v, ok := rt["memory"]; ok && !v.IsNull() {
		switch v.Type().Kind {
		case types.KString:
			m, err := parseMemory(v.AsString())
			if err != nil {
				return containers.RunSpec{}, werrors.NewEvalError(nil, "runtime.memory: %s", err)
			}
			memBytes = m
		case types.KInt:
			memBytes = v.AsInt()
		}
	}

	env := make([]string, 0, len(ex.Config.EnvVars))
	for k, v := range ex.Config.EnvVars {
		env = append(env, k+"="+v)
	}
	if v, ok := rt["env"]; ok && !v.IsNull() && v.Type().Kind == types.KMap {
		v.AsMap().Each(func(k, val values.Value) {
			env = append(env, k.AsString()+"="+val.AsString())
		})
	}
	sort.Strings(env)

	var mounts []containers.Mount
	for _, p := range guard.AllowedPaths() {
		mounts = append(mounts, containers.Mount{HostPath: p, ContainerPath: p, ReadOnly: true})
	}
	sort.Slice(mounts, func(i, j int) bool { return mounts[i].HostPath < mounts[j].HostPath })

	return containers.RunSpec{
		RunID:       runID,
		Image:       image,
		WorkDir:     workDir,
		WorkingDir:  ex.Config.ContainerWorkDir,
		Mounts:      mounts,
		Command:     []string{"bash", "command.sh"},
		Env:         env,
		CPUs:        cpus,
		MemoryBytes: memBytes,
	}, nil
}
