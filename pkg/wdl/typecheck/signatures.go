package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// sigFunc is the static counterpart of stdlib.Func: given the static types
// of a call's arguments, it reports an arity/type error if any and returns
// the function's static result type (spec.md 4.5, "each function declares
// an input signature ... and return Type").
type sigFunc func(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError)

// signatures mirrors stdlib.Registry's map[string]Func dispatch, one
// static signature per required function, grouped into the same math/
// arrays/strings/io files as pkg/wdl/stdlib.
type signatures struct {
	funcs map[string]sigFunc
}

func newSignatures() *signatures {
	s := &signatures{funcs: make(map[string]sigFunc)}
	s.registerMath()
	s.registerArrays()
	s.registerStrings()
	s.registerIO()
	return s
}

func (s *signatures) register(name string, fn sigFunc) {
	s.funcs[name] = fn
}

func (s *signatures) lookup(name string) (sigFunc, bool) {
	fn, ok := s.funcs[name]
	return fn, ok
}

func requireArgs(pos *werrors.SourcePosition, name string, args []*types.Type, min, max int) *werrors.WDLError {
	if len(args) < min || len(args) > max {
		want := min
		if max != min {
			want = max
		}
		return werrors.NewWrongArityError(pos, name, want, len(args))
	}
	return nil
}

func isNumeric(t *types.Type) bool { return t.Kind == types.KInt || t.Kind == types.KFloat }

func isFileLike(t *types.Type) bool {
	return t.Kind == types.KFile || t.Kind == types.KString
}
