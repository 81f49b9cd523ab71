// Package engine implements the workflow engine: it walks a workflow's
// body of declarations, calls, scatters, and conditionals, evaluating each
// against a shared environment and dispatching calls to the task executor
// (spec.md 4.7, 3.7, 5).
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/bindings"
	"github.com/bioflowy/flowy/pkg/wdl/eval"
	"github.com/bioflowy/flowy/pkg/wdl/pathguard"
	"github.com/bioflowy/flowy/pkg/wdl/stdlib"
	"github.com/bioflowy/flowy/pkg/wdl/task"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// defaultScatterParallelism bounds concurrent scatter-body iterations and
// concurrent calls, mirroring the emulator's default branch limit.
const defaultScatterParallelism = 20

// Config configures one Engine run.
type Config struct {
	Executor    *task.Executor
	RunDir      string // scratch directory for this workflow run; every call's run directory lives under it
	InputBase   string // base directory workflow-level relative File inputs resolve against
	Parallelism int    // max concurrent scatter iterations / calls; 0 uses the default
}

func (c Config) withDefaults() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = defaultScatterParallelism
	}
	return c
}

// Engine executes one workflow's body against a document (for task and
// struct lookups) and a container-executing task.Executor.
type Engine struct {
	doc   *ast.Document
	cfg   Config
	guard *pathguard.Guard
	reg   *stdlib.Registry
	sem   chan struct{}
	runID int64 // atomically incremented, used to build unique call run directories
}

// New builds an Engine for doc's workflow. RunDir is created by the caller
// (or by task.Executor.Run's per-call mkdir); Engine itself only needs it
// to root its path guard so that every call's output File/Directory,
// always living somewhere under RunDir, satisfies Guard.Check without
// explicit allow-listing.
func New(doc *ast.Document, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	guard, err := pathguard.New(cfg.RunDir)
	if err != nil {
		return nil, err
	}
	return &Engine{
		doc:   doc,
		cfg:   cfg,
		guard: guard,
		reg:   stdlib.NewRegistry(&stdlib.IOContext{Guard: guard, WorkDir: cfg.RunDir}),
		sem:   make(chan struct{}, cfg.Parallelism),
	}, nil
}

// Execute binds the workflow's inputs, runs its body, evaluates its
// output section, and returns the resulting bindings.
func (e *Engine) Execute(ctx context.Context, inputs map[string]values.Value) (map[string]values.Value, *werrors.WDLError) {
	wf := e.doc.Workflow
	if wf == nil {
		return nil, werrors.NewValidationError(nil, "document declares no workflow")
	}

	env := bindings.Root()
	for _, decl := range wf.Inputs {
		val, err := e.bindWorkflowInput(decl, inputs, env)
		if err != nil {
			return nil, err
		}
		env = env.Bind(decl.Name, val)
	}

	env, err := e.executeBody(ctx, wf.Body, env)
	if err != nil {
		return nil, err
	}

	outputs := make(map[string]values.Value, len(wf.Outputs))
	for _, decl := range wf.Outputs {
		if decl.Expr == nil {
			v, rerr := env.Resolve(decl.Name)
			if rerr != nil {
				return nil, rerr
			}
			outputs[decl.Name] = v
			continue
		}
		v, everr := eval.Eval(decl.Expr, env, e.reg)
		if everr != nil {
			return nil, everr
		}
		coerced, cerr := v.Coerce(decl.DeclType)
		if cerr != nil {
			return nil, cerr
		}
		outputs[decl.Name] = coerced
	}
	return outputs, nil
}

func (e *Engine) bindWorkflowInput(decl *ast.Decl, inputs map[string]values.Value, env *bindings.Bindings) (values.Value, *werrors.WDLError) {
	var raw values.Value
	if v, ok := inputs[decl.Name]; ok {
		raw = v
	} else if decl.Expr != nil {
		v, err := eval.Eval(decl.Expr, env, e.reg)
		if err != nil {
			return values.Value{}, err
		}
		raw = v
	} else if decl.DeclType.Optional {
		raw = values.Null(decl.DeclType)
	} else {
		return values.Value{}, werrors.NewInputError(decl.Pos, "missing required workflow input %q", decl.Name)
	}
	coerced, err := raw.Coerce(decl.DeclType)
	if err != nil {
		return values.Value{}, err
	}
	return task.CanonicalizeFileValues(coerced, e.guard, e.cfg.InputBase)
}

// executeBody runs each element of a workflow or section body in source
// order against env, returning the scope extended with everything the
// body bound (spec.md 3.7, 4.7). Declarations and calls extend env
// directly; scatter and conditional sections gather their body's
// bindings before merging them in.
func (e *Engine) executeBody(ctx context.Context, body []ast.WorkflowElement, env *bindings.Bindings) (*bindings.Bindings, *werrors.WDLError) {
	for _, el := range body {
		switch n := el.(type) {
		case *ast.Decl:
			val, err := eval.Eval(n.Expr, env, e.reg)
			if err != nil {
				return nil, err
			}
			coerced, cerr := val.Coerce(n.DeclType)
			if cerr != nil {
				return nil, cerr
			}
			env = env.Bind(n.Name, coerced)

		case *ast.Call:
			out, err := e.executeCall(ctx, n, env)
			if err != nil {
				return nil, err
			}
			env = env.BindNamespace(n.BoundName(), out)

		case *ast.Scatter:
			gathered, err := e.executeScatter(ctx, n, env)
			if err != nil {
				return nil, err
			}
			env = mergeGathered(env, gathered)

		case *ast.Conditional:
			gathered, err := e.executeConditional(ctx, n, env)
			if err != nil {
				return nil, err
			}
			env = mergeGathered(env, gathered)
		}
	}
	return env, nil
}

// mergeGathered folds a section's freestanding gather scope (built with
// bindings.Root()) into the enclosing scope.
func mergeGathered(env, gathered *bindings.Bindings) *bindings.Bindings {
	for _, name := range gathered.FrameNames() {
		v, _ := gathered.Resolve(name)
		env = env.Bind(name, v)
	}
	for name, sub := range gathered.FrameNamespaces() {
		env = env.BindNamespace(name, sub)
	}
	return env
}

// executeCall evaluates a call's input expressions (falling back to an
// identically-named outer binding when the call omits one — WDL's input
// inheritance), runs the task, and returns its outputs as a freestanding
// namespace scope.
func (e *Engine) executeCall(ctx context.Context, call *ast.Call, env *bindings.Bindings) (*bindings.Bindings, *werrors.WDLError) {
	t := e.lookupTask(call.Task)
	if t == nil {
		return nil, werrors.NewNoSuchTaskError(call.Pos, call.Task)
	}

	inputs := make(map[string]values.Value, len(call.Inputs))
	for name, expr := range call.Inputs {
		v, err := eval.Eval(expr, env, e.reg)
		if err != nil {
			return nil, err
		}
		inputs[name] = v
	}
	for _, decl := range t.Inputs {
		if _, ok := inputs[decl.Name]; ok {
			continue
		}
		if v, rerr := env.Resolve(decl.Name); rerr == nil {
			inputs[decl.Name] = v
		}
	}

	e.sem <- struct{}{}
	defer func() { <-e.sem }()

	runID := fmt.Sprintf("%s-%d", call.WorkflowNodeID, atomic.AddInt64(&e.runID, 1))
	runDir := filepath.Join(e.cfg.RunDir, runID)
	result, err := e.cfg.Executor.Run(ctx, t, inputs, runDir, runID, e.cfg.InputBase)
	if err != nil {
		return nil, err
	}

	out := bindings.Root()
	for name, v := range result.Outputs {
		out = out.Bind(name, v)
	}
	return out, nil
}

// executeScatter fans the body out over the iterand array, bounded by
// e.sem, cancelling sibling iterations on the first failure (fail-fast,
// spec.md 5 "Cancellation"), and gathers every name the body produces into
// Array[T] in iteration-index order (spec.md 3.7, 4.7).
func (e *Engine) executeScatter(ctx context.Context, sc *ast.Scatter, env *bindings.Bindings) (*bindings.Bindings, *werrors.WDLError) {
	iterandVal, err := eval.Eval(sc.Iterand, env, e.reg)
	if err != nil {
		return nil, err
	}
	if iterandVal.IsNull() || iterandVal.Type().Kind != types.KArray {
		return nil, werrors.NewNotAnArrayError(sc.Pos, iterandVal.Type().String())
	}
	elems := iterandVal.AsArray()

	frames := make([]*bindings.Bindings, len(elems))
	errs := make([]*werrors.WDLError, len(elems))

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr *werrors.WDLError

	for i, elem := range elems {
		wg.Add(1)
		go func(i int, elem values.Value) {
			defer wg.Done()
			select {
			case e.sem <- struct{}{}:
				defer func() { <-e.sem }()
			case <-childCtx.Done():
				return
			}

			iterEnv := env.Child().Bind(sc.Variable, elem)
			bodyEnv, berr := e.executeBody(childCtx, sc.Body, iterEnv)
			if berr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = berr
					cancel()
				}
				mu.Unlock()
				errs[i] = berr
				return
			}
			frames[i] = bodyEnv
		}(i, elem)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	locals, namespaces := staticProduced(e.doc, sc.Body)
	gathered := bindings.Root()
	for name, elemType := range locals {
		vals := make([]values.Value, len(frames))
		for i, f := range frames {
			v, rerr := f.Resolve(name)
			if rerr != nil {
				return nil, rerr
			}
			vals[i] = v
		}
		gathered = gathered.Bind(name, values.Array(elemType, vals))
	}
	for ns, members := range namespaces {
		sub := bindings.Root()
		for member, elemType := range members {
			vals := make([]values.Value, len(frames))
			for i, f := range frames {
				nsScope, nerr := f.EnterNamespace(ns)
				if nerr != nil {
					return nil, nerr
				}
				v, rerr := nsScope.Resolve(member)
				if rerr != nil {
					return nil, rerr
				}
				vals[i] = v
			}
			sub = sub.Bind(member, values.Array(elemType, vals))
		}
		gathered = gathered.BindNamespace(ns, sub)
	}
	return gathered, nil
}

// executeConditional runs the body once when cond is true, binding every
// produced name as itself (a present T? is just T at runtime, spec.md
// 3.3). When cond is false every produced name is bound Null at its
// declared type instead, computed statically since the body never ran
// (spec.md 3.7).
func (e *Engine) executeConditional(ctx context.Context, cond *ast.Conditional, env *bindings.Bindings) (*bindings.Bindings, *werrors.WDLError) {
	condVal, err := eval.Eval(cond.Cond, env, e.reg)
	if err != nil {
		return nil, err
	}

	locals, namespaces := staticProduced(e.doc, cond.Body)
	gathered := bindings.Root()

	if !condVal.Truthy() {
		for name, t := range locals {
			gathered = gathered.Bind(name, values.Null(t))
		}
		for ns, members := range namespaces {
			sub := bindings.Root()
			for member, t := range members {
				sub = sub.Bind(member, values.Null(t))
			}
			gathered = gathered.BindNamespace(ns, sub)
		}
		return gathered, nil
	}

	bodyEnv, berr := e.executeBody(ctx, cond.Body, env.Child())
	if berr != nil {
		return nil, berr
	}
	for name := range locals {
		v, rerr := bodyEnv.Resolve(name)
		if rerr != nil {
			return nil, rerr
		}
		gathered = gathered.Bind(name, v)
	}
	for ns, members := range namespaces {
		sub := bindings.Root()
		nsScope, nerr := bodyEnv.EnterNamespace(ns)
		if nerr != nil {
			return nil, nerr
		}
		for member := range members {
			v, rerr := nsScope.Resolve(member)
			if rerr != nil {
				return nil, rerr
			}
			sub = sub.Bind(member, v)
		}
		gathered = gathered.BindNamespace(ns, sub)
	}
	return gathered, nil
}

// lookupTask resolves a call's (possibly namespaced) task name against
// the document's task list. Cross-document imports are not modeled: a
// namespaced reference is matched by its final segment (see DESIGN.md).
func (e *Engine) lookupTask(name string) *ast.Task {
	return lookupTaskIn(e.doc, name)
}

func lookupTaskIn(doc *ast.Document, name string) *ast.Task {
	base := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			base = name[i+1:]
			break
		}
	}
	for _, t := range doc.Tasks {
		if t.Name == base {
			return t
		}
	}
	return nil
}

// staticProduced computes, without executing body, the type every name it
// would bind carries: a Decl's own type, a Call's per-output types from
// its task, and a nested Scatter/Conditional's own gather composed one
// level further (Array[T] / T?, spec.md 3.7). Every scatter and
// conditional uses it to pick the names it gathers outward and their
// types, which also covers a false conditional branch and an empty-array
// scatter, where no iteration runs to read an actual value's type back
// from.
func staticProduced(doc *ast.Document, body []ast.WorkflowElement) (locals map[string]*types.Type, namespaces map[string]map[string]*types.Type) {
	locals = map[string]*types.Type{}
	namespaces = map[string]map[string]*types.Type{}

	for _, el := range body {
		switch n := el.(type) {
		case *ast.Decl:
			locals[n.Name] = n.DeclType

		case *ast.Call:
			members := map[string]*types.Type{}
			if t := lookupTaskIn(doc, n.Task); t != nil {
				for _, o := range t.Outputs {
					members[o.Name] = o.DeclType
				}
			}
			namespaces[n.BoundName()] = members

		case *ast.Scatter:
			subLocals, subNs := staticProduced(doc, n.Body)
			for name, t := range subLocals {
				locals[name] = types.ArrayOf(t)
			}
			for ns, members := range subNs {
				wrapped := map[string]*types.Type{}
				for m, t := range members {
					wrapped[m] = types.ArrayOf(t)
				}
				namespaces[ns] = wrapped
			}

		case *ast.Conditional:
			subLocals, subNs := staticProduced(doc, n.Body)
			for name, t := range subLocals {
				locals[name] = t.Opt()
			}
			for ns, members := range subNs {
				wrapped := map[string]*types.Type{}
				for m, t := range members {
					wrapped[m] = t.Opt()
				}
				namespaces[ns] = wrapped
			}
		}
	}
	return locals, namespaces
}
