package bindings

import (
	"testing"

	"github.com/bioflowy/flowy/pkg/wdl/values"
)

func TestBindAndResolve(t *testing.T) {
	root := Root().Bind("x", values.Int(1))
	child := root.Child().Bind("y", values.Int(2))

	v, err := child.Resolve("y")
	if err != nil || v.AsInt() != 2 {
		t.Fatalf("resolve y: %v %v", v, err)
	}
	v, err = child.Resolve("x")
	if err != nil || v.AsInt() != 1 {
		t.Fatalf("resolve x through parent: %v %v", v, err)
	}
	if _, err := child.Resolve("z"); err == nil {
		t.Fatal("expected UnknownIdentifier for z")
	}
}

func TestBindIsImmutable(t *testing.T) {
	root := Root().Bind("x", values.Int(1))
	_ = root.Bind("x", values.Int(2))

	v, err := root.Resolve("x")
	if err != nil || v.AsInt() != 1 {
		t.Fatalf("original scope mutated: %v %v", v, err)
	}
}

func TestRebindShadowsWithinScope(t *testing.T) {
	s := Root().Bind("x", values.Int(1)).Bind("x", values.Int(2))
	v, err := s.Resolve("x")
	if err != nil || v.AsInt() != 2 {
		t.Fatalf("expected shadowed rebind to win: %v %v", v, err)
	}
}

func TestNamespaces(t *testing.T) {
	sub := Root().Bind("out", values.Str("hello"))
	root := Root().BindNamespace("task1", sub)

	got, err := root.EnterNamespace("task1")
	if err != nil {
		t.Fatalf("enter namespace: %v", err)
	}
	v, err := got.Resolve("out")
	if err != nil || v.AsString() != "hello" {
		t.Fatalf("resolve through namespace: %v %v", v, err)
	}
	if !root.HasNamespace("task1") {
		t.Fatal("expected HasNamespace true")
	}
	if root.HasNamespace("nope") {
		t.Fatal("expected HasNamespace false for unknown name")
	}
}

func TestNamesSortedAndDeduped(t *testing.T) {
	root := Root().Bind("b", values.Int(1)).Bind("a", values.Int(2))
	child := root.Child().Bind("b", values.Int(3))

	names := child.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}
}
