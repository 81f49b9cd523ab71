// Package bindings implements the WDL environment: an immutable-update
// linked-scope structure of (name, value) bindings plus first-class
// namespaces, per spec.md 3.6.
package bindings

import (
	"sort"

	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// entry is one binding in a scope's local list.
type entry struct {
	name  string
	value values.Value
}

// Bindings is a persistent scope: a list of local bindings, a map of
// namespace names to sub-scopes, and a pointer to the enclosing (parent)
// scope for outward lookup. Bind/BindNamespace never mutate the receiver —
// each returns a new head, so concurrent readers of a shared scope need no
// synchronization (spec.md 5, "Shared resources").
type Bindings struct {
	parent     *Bindings
	locals     []entry
	namespaces map[string]*Bindings
}

// Root returns an empty top-level scope.
func Root() *Bindings {
	return &Bindings{}
}

// Bind returns a new scope identical to b but with name bound to value. A
// rebind of an existing local name shadows it (the newest entry wins on
// resolve) rather than mutating the old one in place.
func (b *Bindings) Bind(name string, value values.Value) *Bindings {
	nb := b.shallowCopy()
	nb.locals = append(append([]entry(nil), b.locals...), entry{name: name, value: value})
	return nb
}

// BindNamespace returns a new scope identical to b but with name bound to
// sub as a first-class namespace (used for call-output groups, struct
// member groups, and imported module namespaces — spec.md 3.6, 9).
func (b *Bindings) BindNamespace(name string, sub *Bindings) *Bindings {
	nb := b.shallowCopy()
	nb.namespaces = make(map[string]*Bindings, len(b.namespaces)+1)
	for k, v := range b.namespaces {
		nb.namespaces[k] = v
	}
	nb.namespaces[name] = sub
	return nb
}

func (b *Bindings) shallowCopy() *Bindings {
	if b == nil {
		return &Bindings{}
	}
	return &Bindings{parent: b.parent, locals: b.locals, namespaces: b.namespaces}
}

// Child returns a fresh empty scope chained to b as parent — used to enter
// a scatter iteration's or conditional's body scope (spec.md 3.6, 4.7).
func (b *Bindings) Child() *Bindings {
	return &Bindings{parent: b}
}

// Resolve looks up name in this scope's locals (most recently bound wins),
// then its parent chain. Returns UnknownIdentifier if not found anywhere
// (spec.md 4.4).
func (b *Bindings) Resolve(name string) (values.Value, *werrors.WDLError) {
	for s := b; s != nil; s = s.parent {
		for i := len(s.locals) - 1; i >= 0; i-- {
			if s.locals[i].name == name {
				return s.locals[i].value, nil
			}
		}
	}
	return values.Value{}, werrors.NewUnknownIdentifierError(nil, name)
}

// EnterNamespace returns the named sub-scope, searching this scope and its
// parent chain the same way Resolve does.
func (b *Bindings) EnterNamespace(name string) (*Bindings, *werrors.WDLError) {
	for s := b; s != nil; s = s.parent {
		if sub, ok := s.namespaces[name]; ok {
			return sub, nil
		}
	}
	return nil, werrors.NewUnknownIdentifierError(nil, name)
}

// HasNamespace reports whether name is bound to a namespace anywhere in the
// scope chain.
func (b *Bindings) HasNamespace(name string) bool {
	for s := b; s != nil; s = s.parent {
		if _, ok := s.namespaces[name]; ok {
			return true
		}
	}
	return false
}

// Iter calls fn for every locally-bound name visible from this scope
// (innermost binding per name, outward through parents), in no particular
// order beyond that guarantee. Used by the output-section evaluator to
// snapshot "everything visible" when needed (e.g. `Object`-level dumps).
func (b *Bindings) Iter(fn func(name string, v values.Value)) {
	seen := map[string]bool{}
	for s := b; s != nil; s = s.parent {
		for i := len(s.locals) - 1; i >= 0; i-- {
			n := s.locals[i].name
			if seen[n] {
				continue
			}
			seen[n] = true
			fn(n, s.locals[i].value)
		}
	}
}

// Names returns every locally-visible name, sorted, for diagnostics and
// deterministic iteration in tests.
func (b *Bindings) Names() []string {
	var out []string
	b.Iter(func(name string, _ values.Value) { out = append(out, name) })
	sort.Strings(out)
	return out
}

// FrameNames returns the names bound directly in this scope's own frame,
// without walking to the parent. Used by the workflow engine to read back
// exactly what a scatter iteration or conditional body produced, when the
// body was executed starting from a fresh Child() scope (spec.md 3.7, 4.7).
func (b *Bindings) FrameNames() []string {
	if b == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for i := len(b.locals) - 1; i >= 0; i-- {
		n := b.locals[i].name
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// FrameNamespaces returns the namespaces bound directly in this scope's own
// frame, without walking to the parent. See FrameNames.
func (b *Bindings) FrameNamespaces() map[string]*Bindings {
	if b == nil {
		return nil
	}
	return b.namespaces
}
