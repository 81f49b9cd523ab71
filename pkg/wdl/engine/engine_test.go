package engine

import (
	"context"
	"testing"

	"github.com/bioflowy/flowy/pkg/containers"
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/task"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
)

func ident(name string) *ast.Ident { return &ast.Ident{Base: ast.NewBase(nil), Name: name} }

func strExpr(text string) *ast.String {
	return &ast.String{Base: ast.NewBase(nil), Parts: []ast.StringPart{{Text: text}}}
}

func apply(fn string, args ...ast.Expr) *ast.Apply {
	return &ast.Apply{Base: ast.NewBase(nil), Function: fn, Args: args}
}

// doubleTask echoes 2*x to stdout and reads it back as its output.
func doubleTask() *ast.Task {
	return &ast.Task{
		Name:   "double",
		Inputs: []*ast.Decl{{Name: "x", DeclType: types.Int}},
		Command: &ast.String{Base: ast.NewBase(nil), Parts: []ast.StringPart{
			{Text: "echo $(("},
			{Placeholder: &ast.Placeholder{Expr: ident("x")}},
			{Text: "*2))"},
		}},
		Outputs: []*ast.Decl{{
			Name:     "y",
			DeclType: types.Int,
			Expr:     apply("read_int", apply("stdout")),
		}},
		Runtime: map[string]ast.Expr{},
	}
}

func newTestEngine(t *testing.T, doc *ast.Document) *Engine {
	t.Helper()
	ex := task.New(containers.NewLocalBackend(), task.Config{})
	e, err := New(doc, Config{Executor: ex, RunDir: t.TempDir(), InputBase: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestExecuteCallBindsOutput(t *testing.T) {
	doc := &ast.Document{
		Tasks: []*ast.Task{doubleTask()},
		Workflow: &ast.Workflow{
			Name:   "wf",
			Inputs: []*ast.Decl{{Name: "n", DeclType: types.Int}},
			Body: []ast.WorkflowElement{
				&ast.Call{
					Task:           "double",
					WorkflowNodeID: "call-double",
					Inputs:         map[string]ast.Expr{"x": ident("n")},
				},
			},
			Outputs: []*ast.Decl{{
				Name:     "result",
				DeclType: types.Int,
				Expr:     &ast.Member{Base: ast.NewBase(nil), Target: ident("double"), Name: "y"},
			}},
		},
	}

	e := newTestEngine(t, doc)
	out, err := e.Execute(context.Background(), map[string]values.Value{"n": values.Int(5)})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := out["result"].AsInt(); got != 10 {
		t.Errorf("result = %d, want 10", got)
	}
}

func TestExecuteScatterGathersArray(t *testing.T) {
	doc := &ast.Document{
		Tasks: []*ast.Task{doubleTask()},
		Workflow: &ast.Workflow{
			Name:   "wf",
			Inputs: []*ast.Decl{{Name: "xs", DeclType: types.ArrayOf(types.Int)}},
			Body: []ast.WorkflowElement{
				&ast.Scatter{
					Variable:       "n",
					Iterand:        ident("xs"),
					WorkflowNodeID: "scatter-1",
					Body: []ast.WorkflowElement{
						&ast.Call{
							Task:           "double",
							WorkflowNodeID: "call-double",
							Inputs:         map[string]ast.Expr{"x": ident("n")},
						},
					},
				},
			},
			Outputs: []*ast.Decl{{
				Name:     "ys",
				DeclType: types.ArrayOf(types.Int),
				Expr:     &ast.Member{Base: ast.NewBase(nil), Target: ident("double"), Name: "y"},
			}},
		},
	}

	e := newTestEngine(t, doc)
	xs := values.Array(types.Int, []values.Value{values.Int(1), values.Int(2), values.Int(3)})
	out, err := e.Execute(context.Background(), map[string]values.Value{"xs": xs})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	ys := out["ys"].AsArray()
	if len(ys) != 3 {
		t.Fatalf("len(ys) = %d, want 3", len(ys))
	}
	want := []int64{2, 4, 6}
	for i, v := range ys {
		if v.AsInt() != want[i] {
			t.Errorf("ys[%d] = %d, want %d", i, v.AsInt(), want[i])
		}
	}
}

func TestExecuteConditionalBindsNullWhenFalse(t *testing.T) {
	doc := &ast.Document{
		Tasks: []*ast.Task{doubleTask()},
		Workflow: &ast.Workflow{
			Name:   "wf",
			Inputs: []*ast.Decl{{Name: "run", DeclType: types.Boolean}, {Name: "n", DeclType: types.Int}},
			Body: []ast.WorkflowElement{
				&ast.Conditional{
					Cond:           ident("run"),
					WorkflowNodeID: "cond-1",
					Body: []ast.WorkflowElement{
						&ast.Call{
							Task:           "double",
							WorkflowNodeID: "call-double",
							Inputs:         map[string]ast.Expr{"x": ident("n")},
						},
					},
				},
			},
			Outputs: []*ast.Decl{{
				Name:     "result",
				DeclType: types.Int.Opt(),
				Expr:     &ast.Member{Base: ast.NewBase(nil), Target: ident("double"), Name: "y"},
			}},
		},
	}

	e := newTestEngine(t, doc)
	out, err := e.Execute(context.Background(), map[string]values.Value{
		"run": values.Bool(false),
		"n":   values.Int(5),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out["result"].IsNull() {
		t.Errorf("result = %v, want null", out["result"])
	}
}

func TestExecuteScatterFailFastOnTaskError(t *testing.T) {
	failTask := &ast.Task{
		Name:    "fail",
		Inputs:  []*ast.Decl{{Name: "n", DeclType: types.Int}},
		Command: strExpr("exit 1"),
		Runtime: map[string]ast.Expr{},
	}
	doc := &ast.Document{
		Tasks: []*ast.Task{failTask},
		Workflow: &ast.Workflow{
			Name:   "wf",
			Inputs: []*ast.Decl{{Name: "xs", DeclType: types.ArrayOf(types.Int)}},
			Body: []ast.WorkflowElement{
				&ast.Scatter{
					Variable:       "n",
					Iterand:        ident("xs"),
					WorkflowNodeID: "scatter-1",
					Body: []ast.WorkflowElement{
						&ast.Call{Task: "fail", WorkflowNodeID: "call-fail", Inputs: map[string]ast.Expr{"n": ident("n")}},
					},
				},
			},
		},
	}

	e := newTestEngine(t, doc)
	xs := values.Array(types.Int, []values.Value{values.Int(1), values.Int(2)})
	_, err := e.Execute(context.Background(), map[string]values.Value{"xs": xs})
	if err == nil {
		t.Fatal("expected scatter failure")
	}
}

func TestExecuteMissingTaskFails(t *testing.T) {
	doc := &ast.Document{
		Workflow: &ast.Workflow{
			Name: "wf",
			Body: []ast.WorkflowElement{
				&ast.Call{Task: "nosuch", WorkflowNodeID: "call-1"},
			},
		},
	}
	e := newTestEngine(t, doc)
	_, err := e.Execute(context.Background(), nil)
	if err == nil {
		t.Fatal("expected NoSuchTask error")
	}
}
