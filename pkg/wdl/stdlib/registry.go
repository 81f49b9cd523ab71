// Package stdlib implements the WDL standard library: each function
// declares an input signature and return type implicitly through its
// evaluator closure, registered by name (spec.md 4.5).
package stdlib

import (
	"github.com/bioflowy/flowy/pkg/wdl/pathguard"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Func is a standard library function signature: positional args in,
// value-or-error out. Position information for diagnostics is threaded in
// separately by the registry.
type Func func(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError)

// Registry holds every built-in function and implements eval.FuncRegistry.
type Registry struct {
	funcs map[string]Func
	io    *IOContext
}

// IOContext carries the per-task-run filesystem state the I/O function
// group needs: the path allow-list and the run's working directory for
// write_* outputs and stdout()/stderr() (spec.md 4.5, 4.6, 4.8).
type IOContext struct {
	Guard      *pathguard.Guard
	WorkDir    string
	StdoutPath string
	StderrPath string
}

// NewRegistry registers every required stdlib function group. io may be
// nil for contexts that only evaluate pure expressions (e.g. the pure
// function tests in this package); I/O functions fail with an Eval error if
// called without one.
func NewRegistry(io *IOContext) *Registry {
	r := &Registry{funcs: make(map[string]Func), io: io}
	r.registerMath()
	r.registerArrays()
	r.registerStrings()
	r.registerIO()
	return r
}

// Call implements eval.FuncRegistry.
func (r *Registry) Call(pos *werrors.SourcePosition, name string, args []values.Value) (values.Value, *werrors.WDLError) {
	fn, ok := r.funcs[name]
	if !ok {
		return values.Value{}, werrors.NewNoSuchFunctionError(pos, name)
	}
	return fn(pos, args)
}

func (r *Registry) register(name string, fn Func) {
	r.funcs[name] = fn
}

func requireArgs(pos *werrors.SourcePosition, name string, args []values.Value, min, max int) *werrors.WDLError {
	if len(args) < min || len(args) > max {
		want := min
		if max != min {
			want = max
		}
		return werrors.NewWrongArityError(pos, name, want, len(args))
	}
	return nil
}
