package typecheck

import "github.com/bioflowy/flowy/pkg/wdl/types"

// scope is the checker's static analogue of bindings.Bindings (spec.md
// 3.6): a parent-chained map of names to their static type, plus
// namespaces of call-output/struct-member types. Each Scatter/Conditional
// body gets its own child scope so the gather-typing rule (spec.md 4.3,
// 3.7) can read back exactly what that body's own frame produced, the
// same way the runtime engine's Bindings.FrameNames does.
type scope struct {
	parent *scope
	vars   map[string]*types.Type
	nsVars map[string]map[string]*types.Type
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]*types.Type{}, nsVars: map[string]map[string]*types.Type{}}
}

func (s *scope) bind(name string, t *types.Type) {
	s.vars[name] = t
}

func (s *scope) bindNamespace(name string, members map[string]*types.Type) {
	s.nsVars[name] = members
}

func (s *scope) resolve(name string) (*types.Type, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (s *scope) resolveNamespace(name string) (map[string]*types.Type, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if m, ok := sc.nsVars[name]; ok {
			return m, true
		}
	}
	return nil, false
}
