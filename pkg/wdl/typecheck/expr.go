package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// inferExpr infers e's static type against env, accumulating any
// diagnostics into c.errs, and records the result on e itself via
// SetInferredType so later passes (and the eval-side struct-literal
// resolution noted in DESIGN.md) can read it back (spec.md 3.4, 4.3).
func (c *checker) inferExpr(e ast.Expr, env *scope) *types.Type {
	t := c.inferExprInner(e, env)
	if t == nil {
		t = types.Any
	}
	e.SetInferredType(t)
	return t
}

func (c *checker) inferExprInner(e ast.Expr, env *scope) *types.Type {
	switch n := e.(type) {
	case *ast.Literal:
		return inferLiteral(n)
	case *ast.Ident:
		if t, ok := env.resolve(n.Name); ok {
			return t
		}
		c.errs.Add(werrors.NewUnknownIdentifierError(n.Position(), n.Name))
		return types.Any
	case *ast.String:
		c.inferString(n, env)
		return types.String
	case *ast.ArrayLit:
		return c.inferArrayLit(n, env)
	case *ast.MapLit:
		return c.inferMapLit(n, env)
	case *ast.PairLit:
		return types.PairOf(c.inferExpr(n.Left, env), c.inferExpr(n.Right, env))
	case *ast.StructLit:
		return c.inferStructLit(n, env)
	case *ast.Unary:
		return c.inferUnary(n, env)
	case *ast.Binary:
		return c.inferBinary(n, env)
	case *ast.IfElse:
		return c.inferIfElse(n, env)
	case *ast.Apply:
		return c.inferApply(n, env)
	case *ast.Index:
		return c.inferIndex(n, env)
	case *ast.Member:
		return c.inferMember(n, env)
	}
	return types.Any
}

func inferLiteral(n *ast.Literal) *types.Type {
	switch n.Kind {
	case ast.LitBool:
		return types.Boolean
	case ast.LitInt:
		return types.Int
	case ast.LitFloat:
		return types.Float
	case ast.LitNull:
		return types.NoneType
	}
	return types.Any
}

func (c *checker) inferString(n *ast.String, env *scope) {
	for _, part := range n.Parts {
		if part.Placeholder == nil {
			continue
		}
		c.inferExpr(part.Placeholder.Expr, env)
		if part.Placeholder.Default != nil {
			c.inferExpr(part.Placeholder.Default, env)
		}
	}
}

// inferArrayLit uses the first element's type the same way eval.evalArrayLit
// does at runtime, so a literal's static type matches what it would
// actually evaluate to.
func (c *checker) inferArrayLit(n *ast.ArrayLit, env *scope) *types.Type {
	elemType := types.Any
	for i, el := range n.Elements {
		t := c.inferExpr(el, env)
		if i == 0 {
			elemType = t
		}
	}
	return types.ArrayOf(elemType)
}

func (c *checker) inferMapLit(n *ast.MapLit, env *scope) *types.Type {
	keyType, valType := types.Any, types.Any
	for i, entry := range n.Entries {
		k := c.inferExpr(entry.Key, env)
		v := c.inferExpr(entry.Value, env)
		if i == 0 {
			keyType, valType = k, v
		}
	}
	return types.MapOf(keyType, valType)
}

func (c *checker) inferStructLit(n *ast.StructLit, env *scope) *types.Type {
	members, ok := c.structs[n.TypeName]
	for _, f := range n.Fields {
		ident, isIdent := f.Key.(*ast.Ident)
		fieldType := c.inferExpr(f.Value, env)
		if !isIdent {
			c.errs.Add(werrors.NewValidationError(f.Value.Position(), "struct literal field name must be an identifier"))
			continue
		}
		if !ok {
			continue // the unresolved-type-name error is reported once below
		}
		memberType, has := members[ident.Name]
		if !has {
			c.errs.Add(werrors.NewNoSuchMemberError(n.Position(), ident.Name))
			continue
		}
		if !types.Coerces(fieldType, memberType, true) {
			c.errs.Add(werrors.NewStaticTypeMismatch(f.Value.Position(), memberType.String(), fieldType.String()))
		}
	}
	if !ok {
		c.errs.Add(werrors.NewValidationError(n.Position(), "unknown struct type %q", n.TypeName))
		return types.StructRef(n.TypeName)
	}
	return types.ResolvedStruct(n.TypeName, members)
}

func (c *checker) inferUnary(n *ast.Unary, env *scope) *types.Type {
	t := c.inferExpr(n.Operand, env)
	switch n.Op {
	case ast.OpNot:
		if t.Kind != types.KBoolean {
			c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), string(n.Op), t.String(), ""))
		}
		return types.Boolean
	case ast.OpNeg:
		if !isNumeric(t) {
			c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), string(n.Op), t.String(), ""))
			return types.Int
		}
		return t
	}
	return types.Any
}

func (c *checker) inferBinary(n *ast.Binary, env *scope) *types.Type {
	left := c.inferExpr(n.Left, env)
	right := c.inferExpr(n.Right, env)

	switch n.Op {
	case ast.OpAnd, ast.OpOr:
		if left.Kind != types.KBoolean || right.Kind != types.KBoolean {
			c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), string(n.Op), left.String(), right.String()))
		}
		return types.Boolean
	case ast.OpInterpAdd:
		return c.inferArith(n, left, right)
	case ast.OpAdd:
		if left.Kind == types.KString || right.Kind == types.KString {
			return types.String
		}
		if left.Kind == types.KArray && right.Kind == types.KArray {
			return types.ArrayOf(left.Elem)
		}
		return c.inferArith(n, left, right)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return c.inferArith(n, left, right)
	case ast.OpEq, ast.OpNeq:
		if !types.Equatable(left, right) {
			c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), string(n.Op), left.String(), right.String()))
		}
		return types.Boolean
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		if !(isNumeric(left) && isNumeric(right)) && !(isStringy(left) && isStringy(right)) {
			c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), string(n.Op), left.String(), right.String()))
		}
		return types.Boolean
	}
	return types.Any
}

func (c *checker) inferArith(n *ast.Binary, left, right *types.Type) *types.Type {
	if !isNumeric(left) || !isNumeric(right) {
		c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), string(n.Op), left.String(), right.String()))
		return types.Int
	}
	if left.Kind == types.KInt && right.Kind == types.KInt {
		return types.Int
	}
	return types.Float
}

func isStringy(t *types.Type) bool {
	return t.Kind == types.KString || t.Kind == types.KFile || t.Kind == types.KDirectory
}

func (c *checker) inferIfElse(n *ast.IfElse, env *scope) *types.Type {
	cond := c.inferExpr(n.Cond, env)
	if cond.Kind != types.KBoolean {
		c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), "if", cond.String(), ""))
	}
	thenT := c.inferExpr(n.Then, env)
	elseT := c.inferExpr(n.Else, env)
	if types.Coerces(elseT, thenT, false) {
		return thenT
	}
	if types.Coerces(thenT, elseT, false) {
		return elseT
	}
	c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), "if/else", thenT.String(), elseT.String()))
	return thenT
}

func (c *checker) inferApply(n *ast.Apply, env *scope) *types.Type {
	argTypes := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.inferExpr(a, env)
	}
	sig, ok := c.sigs.lookup(n.Function)
	if !ok {
		c.errs.Add(werrors.NewNoSuchFunctionError(n.Position(), n.Function))
		return types.Any
	}
	t, err := sig(n.Position(), argTypes)
	if err != nil {
		c.errs.Add(err)
	}
	if t == nil {
		return types.Any
	}
	return t
}

func (c *checker) inferIndex(n *ast.Index, env *scope) *types.Type {
	target := c.inferExpr(n.Target, env)
	idx := c.inferExpr(n.Idx, env)
	switch target.Kind {
	case types.KArray:
		if idx.Kind != types.KInt {
			c.errs.Add(werrors.NewIncompatibleOperandError(n.Position(), "[]", target.String(), idx.String()))
		}
		return target.Elem
	case types.KMap:
		return target.Value
	}
	c.errs.Add(werrors.NewNotAnArrayError(n.Position(), target.String()))
	return types.Any
}

func (c *checker) inferMember(n *ast.Member, env *scope) *types.Type {
	if id, isIdent := n.Target.(*ast.Ident); isIdent {
		if members, hasNS := env.resolveNamespace(id.Name); hasNS {
			if t, ok := members[n.Name]; ok {
				return t
			}
			c.errs.Add(werrors.NewNoSuchMemberError(n.Position(), n.Name))
			return types.Any
		}
	}
	target := c.inferExpr(n.Target, env)
	switch target.Kind {
	case types.KPair:
		switch n.Name {
		case "left":
			return target.Left
		case "right":
			return target.Right
		}
		c.errs.Add(werrors.NewNoSuchMemberError(n.Position(), n.Name))
		return types.Any
	case types.KStruct:
		if target.Members == nil {
			return types.Any
		}
		if t, ok := target.Members[n.Name]; ok {
			return t
		}
		c.errs.Add(werrors.NewNoSuchMemberError(n.Position(), n.Name))
		return types.Any
	case types.KMap, types.KObject:
		if target.Value != nil {
			return target.Value
		}
		return types.Any
	}
	c.errs.Add(werrors.NewNoSuchMemberError(n.Position(), n.Name))
	return types.Any
}
