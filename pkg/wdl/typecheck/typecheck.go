// Package typecheck implements the WDL static type checker (spec.md 4.3):
// a single pass over a parsed Document, in declaration order, that infers
// every expression's static type, checks it against its declared type or
// call-input signature, and accumulates every diagnostic it finds into one
// werrors.MultipleValidation instead of failing on the first one — the
// only subsystem in the kernel that behaves this way (spec.md 7, 9).
package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Result records the workflow-level findings a check leaves behind beyond
// the pass/fail errors themselves.
type Result struct {
	// CompleteCalls is false if any call in the workflow body is missing a
	// required input that isn't supplied directly, defaulted, optional, or
	// inherited from an identically-named outer binding. An incomplete
	// call is recorded, not an error: spec.md 4.3 "Incomplete calls are
	// recorded but do not abort type-check".
	CompleteCalls bool
}

type checker struct {
	doc     *ast.Document
	structs map[string]map[string]*types.Type
	sigs    *signatures
	errs    *werrors.Collector
	complete bool
}

// Check runs the static type-checking pass over doc. The returned error is
// nil on a clean pass, or a *werrors.MultipleValidation (as error)
// collecting every diagnostic found, sorted by source position.
func Check(doc *ast.Document) (*Result, error) {
	c := &checker{
		doc:      doc,
		structs:  resolveStructEnv(doc),
		sigs:     newSignatures(),
		errs:     &werrors.Collector{},
		complete: true,
	}
	c.checkDocument()
	return &Result{CompleteCalls: c.complete}, c.errs.Err()
}

func resolveStructEnv(doc *ast.Document) map[string]map[string]*types.Type {
	out := make(map[string]map[string]*types.Type, len(doc.StructTypedefs))
	for _, sd := range doc.StructTypedefs {
		members := make(map[string]*types.Type, len(sd.Members))
		for _, m := range sd.Members {
			members[m.Name] = m.Type
		}
		out[sd.Name] = members
	}
	return out
}

func (c *checker) checkDocument() {
	for _, t := range c.doc.Tasks {
		c.checkTask(t)
	}
	if c.doc.Workflow != nil {
		c.checkWorkflow(c.doc.Workflow)
	}
}

func (c *checker) checkTask(t *ast.Task) {
	env := newScope(nil)
	for _, d := range t.Inputs {
		c.checkDecl(d, env)
	}
	for _, d := range t.PostInputs {
		c.checkDecl(d, env)
	}
	if t.Command != nil {
		c.inferExpr(t.Command, env)
	}
	for _, expr := range t.Runtime {
		c.inferExpr(expr, env)
	}
	for _, d := range t.Outputs {
		c.checkDecl(d, env)
	}
}

func (c *checker) checkWorkflow(wf *ast.Workflow) {
	env := newScope(nil)
	for _, d := range wf.Inputs {
		c.checkDecl(d, env)
	}
	c.checkBody(wf.Body, env)
	for _, d := range wf.Outputs {
		c.checkDecl(d, env)
	}
}

// checkDecl infers a Decl's RHS (if any) and requires it coerce strictly
// into the declared type (spec.md 4.3: "require coerces(rhs, lhs,
// strict=true)"), then binds the declared name at its declared type
// regardless of whether the coercion held, so later references don't
// cascade into spurious UnknownIdentifier errors.
func (c *checker) checkDecl(d *ast.Decl, env *scope) {
	if d.Expr != nil {
		rhsType := c.inferExpr(d.Expr, env)
		if !types.Coerces(rhsType, d.DeclType, true) {
			c.errs.Add(werrors.NewStaticTypeMismatch(d.Expr.Position(), d.DeclType.String(), rhsType.String()))
		}
	}
	env.bind(d.Name, d.DeclType)
}

func (c *checker) checkBody(body []ast.WorkflowElement, env *scope) {
	for _, el := range body {
		switch n := el.(type) {
		case *ast.Decl:
			c.checkDecl(n, env)
		case *ast.Call:
			c.checkCall(n, env)
		case *ast.Scatter:
			c.checkScatter(n, env)
		case *ast.Conditional:
			c.checkConditional(n, env)
		}
	}
}

// checkCall verifies every supplied input coerces into its task's declared
// input type and tracks whether every required input is covered (spec.md
// 4.3), then binds the call's output namespace onto env so `call_name.out`
// member accesses resolve.
func (c *checker) checkCall(call *ast.Call, env *scope) {
	t := lookupTaskIn(c.doc, call.Task)
	if t == nil {
		c.errs.Add(werrors.NewNoSuchTaskError(call.Position(), call.Task))
		env.bindNamespace(call.BoundName(), map[string]*types.Type{})
		return
	}

	supplied := make(map[string]bool, len(call.Inputs))
	for name, expr := range call.Inputs {
		argType := c.inferExpr(expr, env)
		decl := findInput(t, name)
		if decl == nil {
			c.errs.Add(werrors.NewNoSuchInputError(expr.Position(), name))
			continue
		}
		if !types.Coerces(argType, decl.DeclType, true) {
			c.errs.Add(werrors.NewStaticTypeMismatch(expr.Position(), decl.DeclType.String(), argType.String()))
		}
		supplied[name] = true
	}

	complete := true
	for _, decl := range allInputs(t) {
		if supplied[decl.Name] || decl.Expr != nil || decl.DeclType.Optional {
			continue
		}
		if _, ok := env.resolve(decl.Name); ok {
			continue // inherited from an identically-named outer binding
		}
		complete = false
	}
	if !complete {
		c.complete = false
	}

	members := make(map[string]*types.Type, len(t.Outputs))
	for _, o := range t.Outputs {
		members[o.Name] = o.DeclType
	}
	env.bindNamespace(call.BoundName(), members)
}

// checkScatter binds the scatter variable to the iterand's element type and
// recurses into the body in a child scope; every name the body's own frame
// produces is then rebound on env wrapped in Array[·], the gather typing
// rule (spec.md 4.3, 3.7).
func (c *checker) checkScatter(sc *ast.Scatter, env *scope) {
	iterandType := c.inferExpr(sc.Iterand, env)
	elemType := types.Any
	if iterandType.Kind == types.KArray {
		elemType = iterandType.Elem
	} else {
		c.errs.Add(werrors.NewNotAnArrayError(sc.Iterand.Position(), iterandType.String()))
	}

	child := newScope(env)
	child.bind(sc.Variable, elemType)
	c.checkBody(sc.Body, child)

	for name, t := range child.vars {
		env.bind(name, types.ArrayOf(t))
	}
	for ns, members := range child.nsVars {
		wrapped := make(map[string]*types.Type, len(members))
		for m, t := range members {
			wrapped[m] = types.ArrayOf(t)
		}
		env.bindNamespace(ns, wrapped)
	}
}

// checkConditional is checkScatter's Optional-wrapping counterpart.
func (c *checker) checkConditional(cond *ast.Conditional, env *scope) {
	condType := c.inferExpr(cond.Cond, env)
	if condType.Kind != types.KBoolean {
		c.errs.Add(werrors.NewIncompatibleOperandError(cond.Cond.Position(), "if", condType.String(), ""))
	}

	child := newScope(env)
	c.checkBody(cond.Body, child)

	for name, t := range child.vars {
		env.bind(name, t.Opt())
	}
	for ns, members := range child.nsVars {
		wrapped := make(map[string]*types.Type, len(members))
		for m, t := range members {
			wrapped[m] = t.Opt()
		}
		env.bindNamespace(ns, wrapped)
	}
}

func allInputs(t *ast.Task) []*ast.Decl {
	all := make([]*ast.Decl, 0, len(t.Inputs)+len(t.PostInputs))
	all = append(all, t.Inputs...)
	all = append(all, t.PostInputs...)
	return all
}

func findInput(t *ast.Task, name string) *ast.Decl {
	for _, d := range allInputs(t) {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// lookupTaskIn resolves a call's (possibly namespaced) task name by its
// final dotted segment, same convention and same cross-document-import gap
// as pkg/wdl/engine's lookupTaskIn (see DESIGN.md); duplicated rather than
// shared since the two packages have no lower layer in common to hold it.
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
