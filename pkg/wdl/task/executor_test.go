package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bioflowy/flowy/pkg/containers"
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
)

func strExpr(text string) *ast.String {
	return &ast.String{Base: ast.NewBase(nil), Parts: []ast.StringPart{{Text: text}}}
}

func identExpr(name string) *ast.Ident {
	return &ast.Ident{Base: ast.NewBase(nil), Name: name}
}

func TestRunSimpleTaskSucceeds(t *testing.T) {
	greeting := &ast.Decl{Name: "greeting", DeclType: types.String}
	message := &ast.Decl{Name: "message", DeclType: types.String, Expr: identExpr("greeting")}
	out := &ast.Decl{Name: "out", DeclType: types.File, Expr: &ast.Apply{
		Base: ast.NewBase(nil), Function: "stdout",
	}}

	tsk := &ast.Task{
		Name:       "greet",
		Inputs:     []*ast.Decl{greeting},
		PostInputs: []*ast.Decl{message},
		Command:    strExpr("echo hello"),
		Outputs:    []*ast.Decl{out},
		Runtime:    map[string]ast.Expr{},
	}

	ex := New(containers.NewLocalBackend(), Config{})
	runDir := filepath.Join(t.TempDir(), "run1")
	result, werr := ex.Run(context.Background(), tsk, map[string]values.Value{
		"greeting": values.Str("hi"),
	}, runDir, "run1", t.TempDir())
	if werr != nil {
		t.Fatalf("Run failed: %v", werr)
	}
	if result.ExitStatus != 0 {
		t.Errorf("exit status = %d", result.ExitStatus)
	}
	if _, ok := result.Outputs["out"]; !ok {
		t.Error("missing out output")
	}
	data, err := os.ReadFile(result.StdoutPath)
	if err != nil || string(data) != "hello\n" {
		t.Errorf("stdout = %q, err = %v", data, err)
	}
}

func TestRunFailedCommandReportsRunFailed(t *testing.T) {
	tsk := &ast.Task{
		Name:    "fail",
		Command: strExpr("exit 7"),
		Runtime: map[string]ast.Expr{},
	}
	ex := New(containers.NewLocalBackend(), Config{})
	_, werr := ex.Run(context.Background(), tsk, nil, filepath.Join(t.TempDir(), "run2"), "run2", t.TempDir())
	if werr == nil {
		t.Fatal("expected RunFailed error")
	}
}

func TestRunMissingRequiredInputFails(t *testing.T) {
	tsk := &ast.Task{
		Name:    "needsinput",
		Inputs:  []*ast.Decl{{Name: "x", DeclType: types.Int}},
		Command: strExpr("echo ${x}"),
		Runtime: map[string]ast.Expr{},
	}
	ex := New(containers.NewLocalBackend(), Config{})
	_, werr := ex.Run(context.Background(), tsk, nil, filepath.Join(t.TempDir(), "run3"), "run3", t.TempDir())
	if werr == nil {
		t.Fatal("expected missing-input error")
	}
}
