package stdlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bioflowy/flowy/pkg/wdl/pathguard"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
)

func call(t *testing.T, r *Registry, name string, args ...values.Value) values.Value {
	t.Helper()
	v, err := r.Call(nil, name, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func TestMathFuncs(t *testing.T) {
	r := NewRegistry(nil)
	if v := call(t, r, "floor", values.Float(1.7)); v.AsInt() != 1 {
		t.Errorf("floor(1.7) = %v", v)
	}
	if v := call(t, r, "ceil", values.Float(1.2)); v.AsInt() != 2 {
		t.Errorf("ceil(1.2) = %v", v)
	}
	if v := call(t, r, "round", values.Float(1.5)); v.AsInt() != 2 {
		t.Errorf("round(1.5) = %v", v)
	}
	if v := call(t, r, "max", values.Int(3), values.Int(5)); v.AsInt() != 5 {
		t.Errorf("max(3,5) = %v", v)
	}
	if v := call(t, r, "min", values.Float(3.5), values.Int(2)); v.AsFloat() != 2 {
		t.Errorf("min(3.5,2) = %v", v)
	}
}

func TestArrayFuncs(t *testing.T) {
	r := NewRegistry(nil)

	rng := call(t, r, "range", values.Int(3))
	if len(rng.AsArray()) != 3 || rng.AsArray()[2].AsInt() != 2 {
		t.Errorf("range(3) = %v", rng)
	}

	arr := values.Array(types.Int, []values.Value{values.Int(1), values.Int(2), values.Int(3)})
	if l := call(t, r, "length", arr); l.AsInt() != 3 {
		t.Errorf("length = %v", l)
	}

	opt := types.Int.Opt()
	withNulls := values.Array(opt, []values.Value{values.Null(opt), values.Int(7), values.Null(opt)})
	first := call(t, r, "select_first", withNulls)
	if first.AsInt() != 7 {
		t.Errorf("select_first = %v", first)
	}
	all := call(t, r, "select_all", withNulls)
	if len(all.AsArray()) != 1 || all.AsArray()[0].AsInt() != 7 {
		t.Errorf("select_all = %v", all)
	}

	if _, err := r.Call(nil, "select_first", []values.Value{values.Array(opt, nil)}); err == nil {
		t.Error("expected select_first on all-null array to fail")
	}

	zipped := call(t, r, "zip", arr, values.Array(types.String, []values.Value{values.Str("a"), values.Str("b")}))
	if len(zipped.AsArray()) != 2 {
		t.Errorf("zip length = %v", zipped)
	}
}

func TestStringFuncs(t *testing.T) {
	r := NewRegistry(nil)
	if v := call(t, r, "sub", values.Str("hello world"), values.Str("world"), values.Str("there")); v.AsString() != "hello there" {
		t.Errorf("sub = %v", v)
	}
	arr := values.Array(types.String, []values.Value{values.Str("a"), values.Str("b")})
	if v := call(t, r, "sep", values.Str(","), arr); v.AsString() != "a,b" {
		t.Errorf("sep = %v", v)
	}
	if v := call(t, r, "basename", values.Str("/tmp/foo.txt")); v.AsString() != "foo.txt" {
		t.Errorf("basename = %v", v)
	}
	if v := call(t, r, "dirname", values.Str("/tmp/foo.txt")); v.AsString() != "/tmp" {
		t.Errorf("dirname = %v", v)
	}
}

func TestIOFuncsRequireContext(t *testing.T) {
	r := NewRegistry(nil)
	if _, err := r.Call(nil, "read_string", []values.Value{values.Str("/etc/hostname")}); err == nil {
		t.Fatal("expected read_string without IOContext to fail")
	}
}

func TestWriteLinesAndReadLinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g, err := pathguard.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRegistry(&IOContext{Guard: g, WorkDir: dir})

	arr := values.Array(types.String, []values.Value{values.Str("one"), values.Str("two")})
	out := call(t, r, "write_lines", arr)
	path := out.AsString()
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("write_lines did not create file: %v", statErr)
	}

	lines := call(t, r, "read_lines", out)
	if len(lines.AsArray()) != 2 || lines.AsArray()[0].AsString() != "one" {
		t.Errorf("read_lines roundtrip = %v", lines)
	}
}

func TestReadOutsideAllowListFails(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	secret := filepath.Join(other, "secret.txt")
	if err := os.WriteFile(secret, []byte("s"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := pathguard.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRegistry(&IOContext{Guard: g, WorkDir: dir})
	if _, err := r.Call(nil, "read_string", []values.Value{values.FileVal(secret)}); err == nil {
		t.Fatal("expected read outside allow-list to fail")
	}
}
