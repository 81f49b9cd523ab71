package typecheck

import (
	"strings"
	"testing"

	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func ident(name string) *ast.Ident { return &ast.Ident{Base: ast.NewBase(nil), Name: name} }

func lit(kind ast.LiteralKind, i int64, f float64) *ast.Literal {
	return &ast.Literal{Base: ast.NewBase(nil), Kind: kind, IntVal: i, FloatVal: f}
}

func apply(fn string, args ...ast.Expr) *ast.Apply {
	return &ast.Apply{Base: ast.NewBase(nil), Function: fn, Args: args}
}

// TestTypeMismatchHint covers spec.md 8 scenario 6: `Int x = 1.5` must fail
// with a StaticTypeMismatch mentioning floor()/round().
func TestTypeMismatchHint(t *testing.T) {
	doc := &ast.Document{
		Workflow: &ast.Workflow{
			Name: "m",
			Body: []ast.WorkflowElement{
				&ast.Decl{Name: "x", DeclType: types.Int, Expr: lit(ast.LitFloat, 0, 1.5)},
			},
		},
	}

	_, err := Check(doc)
	if err == nil {
		t.Fatal("expected a StaticTypeMismatch error")
	}
	mv, ok := err.(*werrors.MultipleValidation)
	if !ok {
		t.Fatalf("error = %T, want *werrors.MultipleValidation", err)
	}
	if len(mv.Errors) != 1 || mv.Errors[0].Kind != werrors.KindStaticTypeMismatch {
		t.Fatalf("errors = %+v, want one StaticTypeMismatch", mv.Errors)
	}
	msg := mv.Errors[0].Message
	if !strings.Contains(msg, "floor()") && !strings.Contains(msg, "round()") {
		t.Errorf("message %q does not mention floor()/round()", msg)
	}
}

func TestUnknownIdentifier(t *testing.T) {
	doc := &ast.Document{
		Workflow: &ast.Workflow{
			Name: "w",
			Body: []ast.WorkflowElement{
				&ast.Decl{Name: "x", DeclType: types.Int, Expr: ident("nope")},
			},
		},
	}
	_, err := Check(doc)
	mv, ok := err.(*werrors.MultipleValidation)
	if !ok || len(mv.Errors) != 1 || mv.Errors[0].Kind != werrors.KindUnknownIdentifier {
		t.Fatalf("err = %v, want one UnknownIdentifier", err)
	}
}

// TestNestedScatterConditionalGatherTyping covers spec.md 8 scenario 3:
// scatter { if { Int result } } gathers outward as Array[Int?].
func TestNestedScatterConditionalGatherTyping(t *testing.T) {
	resultIdent := ident("result")
	gt := types.Int.Opt()
	condExpr := &ast.Binary{Base: ast.NewBase(nil), Op: ast.OpGt, Left: ident("i"), Right: lit(ast.LitInt, 2, 0)}

	doc := &ast.Document{
		Workflow: &ast.Workflow{
			Name: "t",
			Inputs: []*ast.Decl{
				{Name: "r", DeclType: types.ArrayOf(types.Int)},
			},
			Body: []ast.WorkflowElement{
				&ast.Scatter{
					Variable: "i",
					Iterand:  ident("r"),
					Body: []ast.WorkflowElement{
						&ast.Conditional{
							Cond: condExpr,
							Body: []ast.WorkflowElement{
								&ast.Decl{Name: "result", DeclType: types.Int, Expr: lit(ast.LitInt, 2, 0)},
							},
						},
					},
				},
			},
			Outputs: []*ast.Decl{
				{Name: "maybe", DeclType: types.ArrayOf(gt), Expr: resultIdent},
			},
		},
	}

	res, err := Check(doc)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.CompleteCalls {
		t.Errorf("CompleteCalls = false, want true (no calls in this document)")
	}
	want := types.ArrayOf(gt).String()
	if got := resultIdent.InferredType().String(); got != want {
		t.Errorf("result inferred type = %s, want %s", got, want)
	}
}

func TestIncompleteCallDoesNotAbortCheck(t *testing.T) {
	task := &ast.Task{
		Name:   "needs_n",
		Inputs: []*ast.Decl{{Name: "n", DeclType: types.Int}},
	}
	doc := &ast.Document{
		Tasks: []*ast.Task{task},
		Workflow: &ast.Workflow{
			Name: "w",
			Body: []ast.WorkflowElement{
				&ast.Call{Task: "needs_n", WorkflowNodeID: "call-1"},
			},
		},
	}
	res, err := Check(doc)
	if err != nil {
		t.Fatalf("Check should not fail on an incomplete call: %v", err)
	}
	if res.CompleteCalls {
		t.Errorf("CompleteCalls = true, want false (required input %q never supplied)", "n")
	}
}

func TestCallInputInheritedFromOuterScopeCountsAsSupplied(t *testing.T) {
	task := &ast.Task{
		Name:   "needs_n",
		Inputs: []*ast.Decl{{Name: "n", DeclType: types.Int}},
	}
	doc := &ast.Document{
		Tasks: []*ast.Task{task},
		Workflow: &ast.Workflow{
			Name:   "w",
			Inputs: []*ast.Decl{{Name: "n", DeclType: types.Int}},
			Body: []ast.WorkflowElement{
				&ast.Call{Task: "needs_n", WorkflowNodeID: "call-1"},
			},
		},
	}
	res, err := Check(doc)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !res.CompleteCalls {
		t.Errorf("CompleteCalls = false, want true (n inherited from workflow input)")
	}
}

func TestSelectFirstStripsOptional(t *testing.T) {
	doc := &ast.Document{
		Workflow: &ast.Workflow{
			Name:   "s",
			Inputs: []*ast.Decl{{Name: "opts", DeclType: types.ArrayOf(types.Int.Opt())}},
			Outputs: []*ast.Decl{
				{Name: "first", DeclType: types.Int, Expr: apply("select_first", ident("opts"))},
			},
		},
	}
	if _, err := Check(doc); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
}

func TestNoSuchFunction(t *testing.T) {
	doc := &ast.Document{
		Workflow: &ast.Workflow{
			Name: "w",
			Body: []ast.WorkflowElement{
				&ast.Decl{Name: "x", DeclType: types.Int, Expr: apply("no_such_builtin")},
			},
		},
	}
	_, err := Check(doc)
	mv, ok := err.(*werrors.MultipleValidation)
	if !ok || len(mv.Errors) != 1 || mv.Errors[0].Kind != werrors.KindNoSuchFunction {
		t.Fatalf("err = %v, want one NoSuchFunction", err)
	}
}
