package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bioflowy/flowy/pkg/config"
	"github.com/bioflowy/flowy/pkg/containers"
	"github.com/bioflowy/flowy/pkg/wdl/document"
	"github.com/bioflowy/flowy/pkg/wdl/engine"
	"github.com/bioflowy/flowy/pkg/wdl/store"
	"github.com/bioflowy/flowy/pkg/wdl/task"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
	"github.com/google/uuid"
)

func newRunCommand() *cobra.Command {
	var inputsPath string
	var historyPath string

	cmd := &cobra.Command{
		Use:   "run <document.wdl>",
		Short: "Execute a workflow and print its outputs as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.Resolve(mustFlagString(cmd, "config"))
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runRun(cmd.Context(), args[0], inputsPath, historyPath, cfg)
		},
	}
	cmd.Flags().StringVar(&inputsPath, "inputs", "", "Path to a JSON file of workflow inputs")
	cmd.Flags().StringVar(&historyPath, "history", "", "Path to a sqlite run-history database (defaults to in-memory)")
	return cmd
}

func runRun(ctx context.Context, docPath, inputsPath, historyPath string, cfg config.Config) error {
	loaded, err := document.Load(docPath)
	if err != nil {
		if mv, ok := err.(*werrors.MultipleValidation); ok {
			printValidationErrors(mv)
			os.Exit(1)
		}
		return err
	}
	if loaded.Doc.Workflow == nil {
		return fmt.Errorf("%s declares no workflow", docPath)
	}

	inputs, err := loadInputs(inputsPath, loaded)
	if err != nil {
		return err
	}

	hist, err := openHistory(historyPath)
	if err != nil {
		return err
	}
	defer hist.Close()

	runID := uuid.NewString()
	if err := hist.CreateRun(ctx, runID, docPath); err != nil {
		return err
	}
	_ = hist.MarkRunning(ctx, runID)

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	runDir := filepath.Join(cfg.WorkDir, runID)
	exec := task.New(backend, task.Config{EnvVars: cfg.EnvVars})
	eng, err := engine.New(loaded.Doc, engine.Config{
		Executor:    exec,
		RunDir:      runDir,
		InputBase:   filepath.Dir(docPath),
		Parallelism: cfg.MaxParallelTasks,
	})
	if err != nil {
		_ = hist.FailRun(ctx, runID, err.Error())
		return err
	}

	outputs, werr := eng.Execute(ctx, inputs)
	if werr != nil {
		_ = hist.FailRun(ctx, runID, werr.Error())
		return werr
	}

	jsonOutputs := make(map[string]any, len(outputs))
	for name, v := range outputs {
		jsonOutputs[name] = v.ToJSON()
	}
	_ = hist.CompleteRun(ctx, runID, jsonOutputs)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutputs)
}

func loadInputs(path string, loaded *document.Loaded) (map[string]values.Value, error) {
	inputs := make(map[string]values.Value, len(loaded.Doc.Workflow.Inputs))
	if path == "" {
		return inputs, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inputs %q: %w", path, err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parsing inputs %q: %w", path, err)
	}
	for _, decl := range loaded.Doc.Workflow.Inputs {
		if v, ok := decoded[decl.Name]; ok {
			inputs[decl.Name] = values.FromJSON(v, decl.DeclType)
		}
	}
	return inputs, nil
}

func openHistory(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(path)
}

func newBackend(cfg config.Config) (containers.Backend, error) {
	if !cfg.Container.Enabled {
		return containers.NewLocalBackend(), nil
	}
	switch cfg.Container.Backend {
	case "docker":
		return containers.NewDockerBackend(), nil
	case "local", "":
		return containers.NewLocalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown container backend %q", cfg.Container.Backend)
	}
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
