package ast

import "github.com/bioflowy/flowy/pkg/wdl/types"

// Document is the top-level parse result of a single WDL source file
// (spec.md 3.5).
type Document struct {
	Version         string
	Imports         []*Import
	StructTypedefs  []*StructTypedef
	Tasks           []*Task
	Workflow        *Workflow // nil if the document declares no workflow
	Pos             *Pos
}

type Import struct {
	URI   string
	Alias string
	Pos   *Pos
}

type StructTypedef struct {
	Name    string
	Members []StructMember
	Pos     *Pos
}

type StructMember struct {
	Name string
	Type *types.Type
}

// Task is a unit of work: typed inputs, a command template, a runtime
// spec, and typed outputs (spec.md 3.5, GLOSSARY).
type Task struct {
	Name        string
	Inputs      []*Decl // nil if the task declares no input section
	PostInputs  []*Decl
	Command     *String // the command template expression
	Outputs     []*Decl
	Runtime     map[string]Expr
	Meta        map[string]any
	ParameterMeta map[string]any
	Pos         *Pos
}

// Decl is a single `Type name = expr` declaration, used for task
// inputs/outputs and workflow body declarations.
type Decl struct {
	Name           string
	DeclType       *types.Type
	Expr           Expr // nil if no default / no RHS supplied
	WorkflowNodeID string
	ScatterDepth   int
	Pos            *Pos
}

// Workflow is a graph of declarations, task calls, and control-flow
// sections (GLOSSARY).
type Workflow struct {
	Name    string
	Inputs  []*Decl
	Body    []WorkflowElement
	Outputs []*Decl
	Meta    map[string]any
	ParameterMeta map[string]any
	Pos     *Pos
}

// WorkflowElement is the sum Declaration | Call | Scatter | Conditional
// (spec.md 3.5).
type WorkflowElement interface {
	workflowElement()
	NodeID() string
	Position() *Pos
}

func (d *Decl) workflowElement() {}
func (d *Decl) NodeID() string   { return d.WorkflowNodeID }
func (d *Decl) Position() *Pos   { return d.Pos }

// Call represents a `call t as alias { input: ... } after ...` element.
type Call struct {
	Task           string // possibly namespaced: "ns.task_name"
	Alias          string // empty => Task's base name is used
	Inputs         map[string]Expr
	After          []string
	WorkflowNodeID string
	ScatterDepth   int
	Pos            *Pos
}

func (c *Call) workflowElement() {}
func (c *Call) NodeID() string   { return c.WorkflowNodeID }
func (c *Call) Position() *Pos   { return c.Pos }

// BoundName returns the name under which this call's task-output
// namespace is bound in the environment: Alias if set, else the task's
// base name (stripping any namespace prefix).
func (c *Call) BoundName() string {
	if c.Alias != "" {
		return c.Alias
	}
	name := c.Task
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// Scatter is a `scatter (v in e) { body }` section (spec.md 3.5,
// GLOSSARY); it gathers bound names in its body outward as Array[T].
type Scatter struct {
	Variable       string
	Iterand        Expr
	Body           []WorkflowElement
	WorkflowNodeID string
	ScatterDepth   int // depth of *this* section among enclosing scatters
	Pos            *Pos
}

func (s *Scatter) workflowElement() {}
func (s *Scatter) NodeID() string   { return s.WorkflowNodeID }
func (s *Scatter) Position() *Pos   { return s.Pos }

// Conditional is an `if (cond) { body }` section (spec.md 3.5, GLOSSARY);
// it gathers bound names in its body outward as Optional[T].
type Conditional struct {
	Cond           Expr
	Body           []WorkflowElement
	WorkflowNodeID string
	ScatterDepth   int
	Pos            *Pos
}

func (c *Conditional) workflowElement() {}
func (c *Conditional) NodeID() string   { return c.WorkflowNodeID }
func (c *Conditional) Position() *Pos   { return c.Pos }

// Dependencies returns the identifier names an element's defining
// expression(s) reference — used by the engine's source-order/topological
// dependency analysis (spec.md 3.7, 4.7, 9).
func Dependencies(el WorkflowElement) []string {
	switch n := el.(type) {
	case *Decl:
		if n.Expr == nil {
			return nil
		}
		return CollectIdents(n.Expr)
	case *Call:
		var deps []string
		for _, e := range n.Inputs {
			deps = append(deps, CollectIdents(e)...)
		}
		deps = append(deps, n.After...)
		return deps
	case *Scatter:
		return CollectIdents(n.Iterand)
	case *Conditional:
		return CollectIdents(n.Cond)
	}
	return nil
}

// CollectIdents walks an expression tree and returns every free
// identifier and member-access root it references.
func CollectIdents(e Expr) []string {
	var out []string
	var walk func(Expr)
	walk = func(e Expr) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *Ident:
			out = append(out, n.Name)
		case *Binary:
			walk(n.Left)
			walk(n.Right)
		case *Unary:
			walk(n.Operand)
		case *IfElse:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *Apply:
			for _, a := range n.Args {
				walk(a)
			}
		case *Index:
			walk(n.Target)
			walk(n.Idx)
		case *Member:
			walk(n.Target)
		case *ArrayLit:
			for _, el := range n.Elements {
				walk(el)
			}
		case *PairLit:
			walk(n.Left)
			walk(n.Right)
		case *MapLit:
			for _, kv := range n.Entries {
				walk(kv.Key)
				walk(kv.Value)
			}
		case *StructLit:
			for _, kv := range n.Fields {
				walk(kv.Value)
			}
		case *String:
			for _, p := range n.Parts {
				if p.Placeholder != nil {
					walk(p.Placeholder.Expr)
					if p.Placeholder.Default != nil {
						walk(p.Placeholder.Default)
					}
				}
			}
		}
	}
	walk(e)
	return out
}
