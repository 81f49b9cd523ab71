// Package ast defines the WDL abstract syntax tree: expression nodes
// (spec.md 3.4) and document containers (spec.md 3.5), each carrying a
// source position and, for expressions, an inferred-type slot populated by
// the type checker.
package ast

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Pos is the source position every AST node and diagnostic carries.
type Pos = werrors.SourcePosition

// Expr is the sum type of expression AST nodes.
type Expr interface {
	exprNode()
	Position() *Pos
	// InferredType returns the type slot populated by type-check; nil
	// before that pass runs.
	InferredType() *types.Type
	SetInferredType(*types.Type)
}

type Base struct {
	Pos     *Pos
	Type    *types.Type
}

func (b *Base) exprNode()                       {}
func (b *Base) Position() *Pos                  { return b.Pos }
func (b *Base) InferredType() *types.Type       { return b.Type }
func (b *Base) SetInferredType(t *types.Type)    { b.Type = t }

// NewBase constructs the embedded position/type-slot fields every
// expression node carries.
func NewBase(pos *Pos) Base { return Base{Pos: pos} }

// LiteralKind distinguishes the primitive literal forms.
type LiteralKind int

const (
	LitBool LiteralKind = iota
	LitInt
	LitFloat
	LitNull
)

type Literal struct {
	Base
	Kind     LiteralKind
	BoolVal  bool
	IntVal   int64
	FloatVal float64
}

// StringPart is one piece of a String node: either literal text or a
// placeholder expression with its display options.
type StringPart struct {
	Text        string // set when Placeholder == nil
	Placeholder *Placeholder
}

// Placeholder is a ~{expr}/${expr} occurrence with its formatting options
// (spec.md 3.4, 4.4).
type Placeholder struct {
	Expr    Expr
	Sep     *string
	True    *string
	False   *string
	Default Expr
}

// String is a string literal or command-template fragment: a list of
// text-or-placeholder parts (spec.md 3.4).
type String struct {
	Base
	Parts []StringPart
}

type Ident struct {
	Base
	Name string
}

type ArrayLit struct {
	Base
	Elements []Expr
}

type PairLit struct {
	Base
	Left, Right Expr
}

type MapEntry struct {
	Key, Value Expr
}

type MapLit struct {
	Base
	Entries []MapEntry
}

type StructLit struct {
	Base
	TypeName string
	Fields   []MapEntry // Key is always an Ident
}

type UnaryOp string

const (
	OpNot UnaryOp = "!"
	OpNeg UnaryOp = "-"
)

type Unary struct {
	Base
	Op      UnaryOp
	Operand Expr
}

type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
	OpMod BinOp = "%"
	OpEq  BinOp = "=="
	OpNeq BinOp = "!="
	OpLt  BinOp = "<"
	OpLte BinOp = "<="
	OpGt  BinOp = ">"
	OpGte BinOp = ">="
	OpAnd BinOp = "&&"
	OpOr  BinOp = "||"
	// OpInterpAdd is the mechanical rewrite of '+' inside a placeholder
	// (spec.md 3.4, 9): either-null-operand yields "" instead of failing.
	OpInterpAdd BinOp = "_interpolation_add"
)

type Binary struct {
	Base
	Op          BinOp
	Left, Right Expr
}

type IfElse struct {
	Base
	Cond, Then, Else Expr
}

type Apply struct {
	Base
	Function string
	Args     []Expr
}

type Index struct {
	Base
	Target, Idx Expr
}

type Member struct {
	Base
	Target Expr
	Name   string
}

// RewriteInterpolationAdd recursively rewrites every '+' BinOp inside an
// expression tree to OpInterpAdd, mechanically preserving precedence
// (spec.md 9). Used when parsing the contents of a ~{...}/${...}
// placeholder.
func RewriteInterpolationAdd(e Expr) Expr {
	switch n := e.(type) {
	case *Binary:
		n.Left = RewriteInterpolationAdd(n.Left)
		n.Right = RewriteInterpolationAdd(n.Right)
		if n.Op == OpAdd {
			n.Op = OpInterpAdd
		}
		return n
	case *Unary:
		n.Operand = RewriteInterpolationAdd(n.Operand)
		return n
	case *IfElse:
		n.Cond = RewriteInterpolationAdd(n.Cond)
		n.Then = RewriteInterpolationAdd(n.Then)
		n.Else = RewriteInterpolationAdd(n.Else)
		return n
	case *Apply:
		for i := range n.Args {
			n.Args[i] = RewriteInterpolationAdd(n.Args[i])
		}
		return n
	case *Index:
		n.Target = RewriteInterpolationAdd(n.Target)
		n.Idx = RewriteInterpolationAdd(n.Idx)
		return n
	case *Member:
		n.Target = RewriteInterpolationAdd(n.Target)
		return n
	case *ArrayLit:
		for i := range n.Elements {
			n.Elements[i] = RewriteInterpolationAdd(n.Elements[i])
		}
		return n
	case *PairLit:
		n.Left = RewriteInterpolationAdd(n.Left)
		n.Right = RewriteInterpolationAdd(n.Right)
		return n
	case *MapLit:
		for i := range n.Entries {
			n.Entries[i].Key = RewriteInterpolationAdd(n.Entries[i].Key)
			n.Entries[i].Value = RewriteInterpolationAdd(n.Entries[i].Value)
		}
		return n
	default:
		return e
	}
}
