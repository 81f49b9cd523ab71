// Package api implements the ambient REST front-end (spec.md 6, "external
// collaborators"): submit a document for execution, poll its status, list
// run history, cancel a run in flight. Grounded on the teacher's
// pkg/api.Server (fiber, an in-memory parsed-document cache, and an
// engine registry used for cancellation), generalized from the GCP
// Workflows/Executions surface to flowy's run-centric one.
package api

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/bioflowy/flowy/pkg/containers"
	"github.com/bioflowy/flowy/pkg/wdl/document"
	"github.com/bioflowy/flowy/pkg/wdl/engine"
	"github.com/bioflowy/flowy/pkg/wdl/store"
	"github.com/bioflowy/flowy/pkg/wdl/task"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Config carries the settings a submitted run is executed under.
type Config struct {
	Backend    containers.Backend
	RunDir     string // parent scratch directory; each run gets RunDir/<run_id>
	InputBase  string
	TaskConfig task.Config
}

// Server is the flowy REST API: POST /runs, GET /runs, GET /runs/:id,
// DELETE /runs/:id.
type Server struct {
	app   *fiber.App
	store store.Store
	cfg   Config

	mu      sync.Mutex
	cancels map[string]context.CancelFunc // run_id -> cancel, for in-flight runs only
}

// New builds a Server backed by s, executing submitted documents per cfg.
func New(s store.Store, cfg Config) *Server {
	srv := &Server{
		store:   s,
		cfg:     cfg,
		cancels: make(map[string]context.CancelFunc),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/runs", srv.submitRun)
	app.Get("/runs", srv.listRuns)
	app.Get("/runs/:id", srv.getRun)
	app.Delete("/runs/:id", srv.cancelRun)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on addr, blocking until it returns an
// error (including a clean shutdown).
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type submitRequest struct {
	WDL    string         `json:"wdl"`
	Inputs map[string]any `json:"inputs"`
}

func (s *Server) submitRun(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}

	runID := uuid.NewString()
	loaded, err := document.LoadSource(req.WDL, runID+".wdl")
	if err != nil {
		if _, ok := err.(*werrors.MultipleValidation); ok {
			return errorResponse(c, 400, "FAILED_PRECONDITION", err.Error())
		}
		return errorResponse(c, 400, "INVALID_ARGUMENT", err.Error())
	}
	if loaded.Doc.Workflow == nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", "document declares no workflow")
	}

	inputs := make(map[string]values.Value, len(loaded.Doc.Workflow.Inputs))
	for _, decl := range loaded.Doc.Workflow.Inputs {
		raw, ok := req.Inputs[decl.Name]
		if !ok {
			continue
		}
		inputs[decl.Name] = values.FromJSON(raw, decl.DeclType)
	}

	if err := s.store.CreateRun(c.Context(), runID, loaded.Doc.Workflow.Name); err != nil {
		return errorResponse(c, 500, "INTERNAL", err.Error())
	}

	go s.runWorkflow(runID, loaded, inputs)

	return c.Status(200).JSON(fiber.Map{"run_id": runID})
}

func (s *Server) runWorkflow(runID string, loaded *document.Loaded, inputs map[string]values.Value) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[runID] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, runID)
		s.mu.Unlock()
		cancel()
	}()

	bgCtx := context.Background()
	_ = s.store.MarkRunning(bgCtx, runID)

	exec := task.New(s.cfg.Backend, s.cfg.TaskConfig)
	eng, err := engine.New(loaded.Doc, engine.Config{
		Executor:  exec,
		RunDir:    filepath.Join(s.cfg.RunDir, runID),
		InputBase: s.cfg.InputBase,
	})
	if err != nil {
		_ = s.store.FailRun(bgCtx, runID, err.Error())
		return
	}

	outputs, werr := eng.Execute(ctx, inputs)
	if werr != nil {
		_ = s.store.FailRun(bgCtx, runID, werr.Error())
		return
	}

	jsonOutputs := make(map[string]any, len(outputs))
	for name, v := range outputs {
		jsonOutputs[name] = v.ToJSON()
	}
	_ = s.store.CompleteRun(bgCtx, runID, jsonOutputs)
}

func (s *Server) getRun(c *fiber.Ctx) error {
	r, err := s.store.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(runToJSON(r))
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	runs, err := s.store.ListRuns(c.Context())
	if err != nil {
		return errorResponse(c, 500, "INTERNAL", err.Error())
	}
	items := make([]fiber.Map, len(runs))
	for i, r := range runs {
		items[i] = runToJSON(r)
	}
	return c.JSON(fiber.Map{"runs": items})
}

func (s *Server) cancelRun(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	cancel, ok := s.cancels[id]
	s.mu.Unlock()
	if !ok {
		return errorResponse(c, 400, "FAILED_PRECONDITION", fmt.Sprintf("run %q is not in flight", id))
	}
	cancel()

	return c.JSON(fiber.Map{"run_id": id, "status": "cancelling"})
}

func runToJSON(r *store.Run) fiber.Map {
	m := fiber.Map{
		"run_id":       r.RunID,
		"document_uri": r.DocumentURI,
		"started_at":   r.StartedAt,
		"status":       string(r.Status),
	}
	if !r.FinishedAt.IsZero() {
		m["finished_at"] = r.FinishedAt
	}
	if r.Outputs != nil {
		m["outputs"] = r.Outputs
	}
	if r.ErrorText != "" {
		m["error"] = r.ErrorText
	}
	return m
}

func errorResponse(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}
