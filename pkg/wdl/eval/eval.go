// Package eval implements the pure, deterministic expression evaluator:
// given (expr, env, stdlib) it walks the AST and produces a values.Value or
// one of the fixed failure modes of spec.md 4.4.
package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/bindings"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// FuncRegistry resolves a stdlib function call by name. pkg/wdl/stdlib
// implements this; kept as an interface here so eval never imports stdlib
// (stdlib itself has no reason to import eval).
type FuncRegistry interface {
	Call(pos *werrors.SourcePosition, name string, args []values.Value) (values.Value, *werrors.WDLError)
}

// Eval walks e in env, calling reg for any Apply nodes.
func Eval(e ast.Expr, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	switch n := e.(type) {
	case *ast.Literal:
		return evalLiteral(n), nil
	case *ast.Ident:
		return env.Resolve(n.Name)
	case *ast.String:
		return evalString(n, env, reg)
	case *ast.ArrayLit:
		return evalArrayLit(n, env, reg)
	case *ast.MapLit:
		return evalMapLit(n, env, reg)
	case *ast.PairLit:
		return evalPairLit(n, env, reg)
	case *ast.StructLit:
		return evalStructLit(n, env, reg)
	case *ast.Unary:
		return evalUnary(n, env, reg)
	case *ast.Binary:
		return evalBinary(n, env, reg)
	case *ast.IfElse:
		return evalIfElse(n, env, reg)
	case *ast.Apply:
		return evalApply(n, env, reg)
	case *ast.Index:
		return evalIndex(n, env, reg)
	case *ast.Member:
		return evalMember(n, env, reg)
	default:
		return values.Value{}, werrors.NewEvalError(exprPos(e), "unsupported expression node %T", e)
	}
}

func exprPos(e ast.Expr) *werrors.SourcePosition {
	p := e.Position()
	if p == nil {
		return nil
	}
	return &werrors.SourcePosition{URI: p.URI, Line: p.Line, Col: p.Col, EndLine: p.EndLine, EndCol: p.EndCol}
}

func evalLiteral(n *ast.Literal) values.Value {
	switch n.Kind {
	case ast.LitInt:
		return values.Int(n.IntVal)
	case ast.LitFloat:
		return values.Float(n.FloatVal)
	case ast.LitBool:
		return values.Bool(n.BoolVal)
	case ast.LitNull:
		return values.Null(types.NoneType)
	}
	return values.Null(types.NoneType)
}

func evalArrayLit(n *ast.ArrayLit, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	elems := make([]values.Value, len(n.Elements))
	elemType := types.Any
	for i, el := range n.Elements {
		v, err := Eval(el, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		elems[i] = v
		if i == 0 {
			elemType = v.Type()
		}
	}
	return values.Array(elemType, elems), nil
}

func evalMapLit(n *ast.MapLit, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	m := values.NewOrderedMap()
	keyType, valType := types.Any, types.Any
	for i, entry := range n.Entries {
		k, err := Eval(entry.Key, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		v, err := Eval(entry.Value, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		m.Set(k, v)
		if i == 0 {
			keyType, valType = k.Type(), v.Type()
		}
	}
	return values.Map(keyType, valType, m), nil
}

func evalPairLit(n *ast.PairLit, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	l, err := Eval(n.Left, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	r, err := Eval(n.Right, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	return values.Pair(l, r), nil
}

// evalStructLit evaluates `TypeName { k: v, ... }`. Without a document-wide
// struct-typedef table the evaluator cannot resolve TypeName to a concrete
// member map here; callers that need struct coercion (task/engine code that
// carries the document) post-process via values.Struct against the
// resolved type looked up from the type checker's struct environment.
func evalStructLit(n *ast.StructLit, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	m := values.NewOrderedMap()
	for _, f := range n.Fields {
		key, ok := f.Key.(*ast.Ident)
		if !ok {
			return values.Value{}, werrors.NewEvalError(exprPos(n), "struct literal field name must be an identifier")
		}
		v, err := Eval(f.Value, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		m.Set(values.Str(key.Name), v)
	}
	return values.Map(types.String, types.Any, m), nil
}

func evalUnary(n *ast.Unary, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	v, err := Eval(n.Operand, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	switch n.Op {
	case ast.OpNot:
		if v.Type().Kind != types.KBoolean {
			return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), "!", v.Type().String(), "")
		}
		return values.Bool(!v.AsBool()), nil
	case ast.OpNeg:
		switch v.Type().Kind {
		case types.KInt:
			return values.Int(-v.AsInt()), nil
		case types.KFloat:
			return values.Float(-v.AsFloat()), nil
		}
		return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), "-", v.Type().String(), "")
	}
	return values.Value{}, werrors.NewEvalError(exprPos(n), "unknown unary operator")
}

func evalBinary(n *ast.Binary, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		left, err := Eval(n.Left, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		if left.Type().Kind != types.KBoolean {
			return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), string(n.Op), left.Type().String(), "")
		}
		if n.Op == ast.OpAnd && !left.AsBool() {
			return left, nil
		}
		if n.Op == ast.OpOr && left.AsBool() {
			return left, nil
		}
		right, err := Eval(n.Right, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		if right.Type().Kind != types.KBoolean {
			return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), string(n.Op), right.Type().String(), "")
		}
		return right, nil
	}

	if n.Op == ast.OpInterpAdd {
		left, err := Eval(n.Left, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		right, err := Eval(n.Right, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		if left.IsNull() || right.IsNull() {
			return values.Str(""), nil
		}
		return evalAdd(exprPos(n), left, right)
	}

	left, err := Eval(n.Left, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	right, err := Eval(n.Right, env, reg)
	if err != nil {
		return values.Value{}, err
	}

	switch n.Op {
	case ast.OpAdd:
		return evalAdd(exprPos(n), left, right)
	case ast.OpSub:
		return evalArith(exprPos(n), left, right, '-')
	case ast.OpMul:
		return evalArith(exprPos(n), left, right, '*')
	case ast.OpDiv:
		return evalArith(exprPos(n), left, right, '/')
	case ast.OpMod:
		return evalArith(exprPos(n), left, right, '%')
	case ast.OpEq:
		return values.Bool(values.Equal(left, right)), nil
	case ast.OpNeq:
		return values.Bool(!values.Equal(left, right)), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return evalCompare(exprPos(n), n.Op, left, right)
	}
	return values.Value{}, werrors.NewEvalError(exprPos(n), "unknown binary operator %q", n.Op)
}

func isNumeric(t *types.Type) bool { return t.Kind == types.KInt || t.Kind == types.KFloat }

func evalAdd(pos *werrors.SourcePosition, left, right values.Value) (values.Value, *werrors.WDLError) {
	if left.Type().Kind == types.KString || right.Type().Kind == types.KString {
		if left.IsNull() || right.IsNull() {
			return values.Value{}, werrors.NewNullValueError(pos, "string concatenation")
		}
		return values.Str(left.String() + right.String()), nil
	}
	if left.Type().Kind == types.KArray && right.Type().Kind == types.KArray {
		elems := append(append([]values.Value(nil), left.AsArray()...), right.AsArray()...)
		return values.Array(left.Type().Elem, elems), nil
	}
	return evalArith(pos, left, right, '+')
}

func evalArith(pos *werrors.SourcePosition, left, right values.Value, op byte) (values.Value, *werrors.WDLError) {
	if !isNumeric(left.Type()) || !isNumeric(right.Type()) {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, string(op), left.Type().String(), right.Type().String())
	}
	if left.Type().Kind == types.KInt && right.Type().Kind == types.KInt {
		a, b := left.AsInt(), right.AsInt()
		switch op {
		case '+':
			return values.Int(a + b), nil
		case '-':
			return values.Int(a - b), nil
		case '*':
			return values.Int(a * b), nil
		case '/':
			if b == 0 {
				return values.Value{}, werrors.NewEvalError(pos, "division by zero")
			}
			return values.Int(a / b), nil
		case '%':
			if b == 0 {
				return values.Value{}, werrors.NewEvalError(pos, "division by zero")
			}
			return values.Int(a % b), nil
		}
	}
	a, b := asFloat(left), asFloat(right)
	switch op {
	case '+':
		return values.Float(a + b), nil
	case '-':
		return values.Float(a - b), nil
	case '*':
		return values.Float(a * b), nil
	case '/':
		if b == 0 {
			return values.Value{}, werrors.NewEvalError(pos, "division by zero")
		}
		return values.Float(a / b), nil
	case '%':
		if b == 0 {
			return values.Value{}, werrors.NewEvalError(pos, "division by zero")
		}
		return values.Float(math.Mod(a, b)), nil
	}
	return values.Value{}, werrors.NewEvalError(pos, "unreachable arithmetic operator")
}

func asFloat(v values.Value) float64 {
	if v.Type().Kind == types.KInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

func evalCompare(pos *werrors.SourcePosition, op ast.BinOp, left, right values.Value) (values.Value, *werrors.WDLError) {
	var cmp int
	switch {
	case isNumeric(left.Type()) && isNumeric(right.Type()):
		a, b := asFloat(left), asFloat(right)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	case isStringy(left.Type()) && isStringy(right.Type()):
		cmp = strings.Compare(left.AsString(), right.AsString())
	default:
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, string(op), left.Type().String(), right.Type().String())
	}
	switch op {
	case ast.OpLt:
		return values.Bool(cmp < 0), nil
	case ast.OpLte:
		return values.Bool(cmp <= 0), nil
	case ast.OpGt:
		return values.Bool(cmp > 0), nil
	case ast.OpGte:
		return values.Bool(cmp >= 0), nil
	}
	return values.Value{}, werrors.NewEvalError(pos, "unknown comparison operator")
}

func isStringy(t *types.Type) bool {
	return t.Kind == types.KString || t.Kind == types.KFile || t.Kind == types.KDirectory
}

func evalIfElse(n *ast.IfElse, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	cond, err := Eval(n.Cond, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	if cond.Type().Kind != types.KBoolean {
		return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), "if", cond.Type().String(), "")
	}
	if cond.AsBool() {
		return Eval(n.Then, env, reg)
	}
	return Eval(n.Else, env, reg)
}

func evalApply(n *ast.Apply, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	args := make([]values.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		args[i] = v
	}
	return reg.Call(exprPos(n), n.Function, args)
}

func evalIndex(n *ast.Index, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	target, err := Eval(n.Target, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	idx, err := Eval(n.Idx, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	switch target.Type().Kind {
	case types.KArray:
		if idx.Type().Kind != types.KInt {
			return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), "[]", target.Type().String(), idx.Type().String())
		}
		arr := target.AsArray()
		i := int(idx.AsInt())
		if i < 0 || i >= len(arr) {
			return values.Value{}, werrors.NewOutOfBoundsError(exprPos(n), i, len(arr))
		}
		return arr[i], nil
	case types.KMap:
		v, ok := target.AsMap().Get(idx)
		if !ok {
			return values.Value{}, werrors.NewEvalError(exprPos(n), "map has no key %q", idx.String())
		}
		return v, nil
	default:
		return values.Value{}, werrors.NewIncompatibleOperandError(exprPos(n), "[]", target.Type().String(), "")
	}
}

func evalMember(n *ast.Member, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	if id, ok := n.Target.(*ast.Ident); ok && env.HasNamespace(id.Name) {
		sub, err := env.EnterNamespace(id.Name)
		if err != nil {
			return values.Value{}, err
		}
		return sub.Resolve(n.Name)
	}
	target, err := Eval(n.Target, env, reg)
	if err != nil {
		return values.Value{}, err
	}
	switch target.Type().Kind {
	case types.KPair:
		switch n.Name {
		case "left":
			return target.AsPair().Left, nil
		case "right":
			return target.AsPair().Right, nil
		}
		return values.Value{}, werrors.NewNoSuchMemberError(exprPos(n), n.Name)
	case types.KStruct:
		v, ok := target.AsStruct().Members.Get(values.Str(n.Name))
		if !ok {
			return values.Value{}, werrors.NewNoSuchMemberError(exprPos(n), n.Name)
		}
		return v, nil
	case types.KMap, types.KObject:
		v, ok := target.AsMap().Get(values.Str(n.Name))
		if !ok {
			return values.Value{}, werrors.NewNoSuchMemberError(exprPos(n), n.Name)
		}
		return v, nil
	default:
		return values.Value{}, werrors.NewNoSuchMemberError(exprPos(n), n.Name)
	}
}

// evalString renders a String AST node's parts to a values.Str, handling
// each Placeholder's sep/true/false/default options (spec.md 4.4).
func evalString(n *ast.String, env *bindings.Bindings, reg FuncRegistry) (values.Value, *werrors.WDLError) {
	var sb strings.Builder
	for _, part := range n.Parts {
		if part.Placeholder == nil {
			sb.WriteString(part.Text)
			continue
		}
		s, err := renderPlaceholder(part.Placeholder, env, reg)
		if err != nil {
			return values.Value{}, err
		}
		sb.WriteString(s)
	}
	return values.Str(sb.String()), nil
}

func renderPlaceholder(ph *ast.Placeholder, env *bindings.Bindings, reg FuncRegistry) (string, *werrors.WDLError) {
	v, err := Eval(ph.Expr, env, reg)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		if ph.Default != nil {
			dv, err := Eval(ph.Default, env, reg)
			if err != nil {
				return "", err
			}
			v = dv
		} else {
			return "", werrors.NewNullValueError(exprPos(ph.Expr), "string interpolation")
		}
	}
	if v.Type().Kind == types.KBoolean && (ph.True != nil || ph.False != nil) {
		if v.AsBool() {
			if ph.True != nil {
				return *ph.True, nil
			}
			return "true", nil
		}
		if ph.False != nil {
			return *ph.False, nil
		}
		return "false", nil
	}
	if v.Type().Kind == types.KArray && ph.Sep != nil {
		parts := make([]string, len(v.AsArray()))
		for i, e := range v.AsArray() {
			parts[i] = e.String()
		}
		return strings.Join(parts, *ph.Sep), nil
	}
	return v.String(), nil
}

// ParseIntStrict and ParseFloatStrict implement the String->Int/Float
// coercion failure mode used both by static coercion checks on literals and
// by runtime string-to-number stdlib functions (spec.md 4.4, "Eval {pos,
// message} for string->int/float parse failures").
func ParseIntStrict(s string) (int64, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return i, err == nil
}

func ParseFloatStrict(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}
