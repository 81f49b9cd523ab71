package stdlib

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// registerArrays registers the array-family functions (spec.md 4.5).
func (r *Registry) registerArrays() {
	r.register("range", arrRange)
	r.register("length", arrLength)
	r.register("flatten", arrFlatten)
	r.register("select_first", arrSelectFirst)
	r.register("select_all", arrSelectAll)
	r.register("defined", arrDefined)
	r.register("transpose", arrTranspose)
	r.register("zip", arrZip)
	r.register("cross", arrCross)
	r.register("prefix", arrPrefix)
	r.register("suffix", arrSuffix)
}

func arrRange(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "range", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KInt {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "range", args[0].Type().String(), "")
	}
	n := args[0].AsInt()
	elems := make([]values.Value, 0, n)
	for i := int64(0); i < n; i++ {
		elems = append(elems, values.Int(i))
	}
	return values.Array(types.Int, elems), nil
}

func arrLength(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "length", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	switch args[0].Type().Kind {
	case types.KArray:
		return values.Int(int64(len(args[0].AsArray()))), nil
	case types.KMap:
		return values.Int(int64(args[0].AsMap().Len())), nil
	case types.KString:
		return values.Int(int64(len(args[0].AsString()))), nil
	}
	return values.Value{}, werrors.NewIncompatibleOperandError(pos, "length", args[0].Type().String(), "")
}

func arrFlatten(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "flatten", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray || args[0].Type().Elem.Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "flatten", args[0].Type().String(), "")
	}
	elemType := args[0].Type().Elem.Elem
	var out []values.Value
	for _, inner := range args[0].AsArray() {
		out = append(out, inner.AsArray()...)
	}
	return values.Array(elemType, out), nil
}

func arrSelectFirst(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "select_first", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "select_first", args[0].Type().String(), "")
	}
	for _, v := range args[0].AsArray() {
		if !v.IsNull() {
			return v, nil
		}
	}
	return values.Value{}, werrors.NewEmptyArrayError(pos)
}

func arrSelectAll(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "select_all", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "select_all", args[0].Type().String(), "")
	}
	elemType := args[0].Type().Elem.Required()
	out := make([]values.Value, 0, len(args[0].AsArray()))
	for _, v := range args[0].AsArray() {
		if !v.IsNull() {
			out = append(out, v)
		}
	}
	return values.Array(elemType, out), nil
}

func arrDefined(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "defined", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	return values.Bool(!args[0].IsNull()), nil
}

func arrTranspose(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "transpose", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray || args[0].Type().Elem.Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "transpose", args[0].Type().String(), "")
	}
	rows := args[0].AsArray()
	innerType := args[0].Type().Elem
	if len(rows) == 0 {
		return values.Array(innerType, nil), nil
	}
	cols := len(rows[0].AsArray())
	out := make([]values.Value, cols)
	for c := 0; c < cols; c++ {
		col := make([]values.Value, len(rows))
		for rIdx, row := range rows {
			rowElems := row.AsArray()
			if c >= len(rowElems) {
				return values.Value{}, werrors.NewEvalError(pos, "transpose: ragged array, row %d has fewer than %d columns", rIdx, cols)
			}
			col[rIdx] = rowElems[c]
		}
		out[c] = values.Array(innerType.Elem, col)
	}
	return values.Array(innerType, out), nil
}

func arrZip(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "zip", args, 2, 2); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray || args[1].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "zip", args[0].Type().String(), args[1].Type().String())
	}
	a, b := args[0].AsArray(), args[1].AsArray()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]values.Value, n)
	for i := 0; i < n; i++ {
		out[i] = values.Pair(a[i], b[i])
	}
	pairType := types.PairOf(args[0].Type().Elem, args[1].Type().Elem)
	return values.Array(pairType, out), nil
}

func arrCross(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "cross", args, 2, 2); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray || args[1].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "cross", args[0].Type().String(), args[1].Type().String())
	}
	a, b := args[0].AsArray(), args[1].AsArray()
	out := make([]values.Value, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, values.Pair(x, y))
		}
	}
	pairType := types.PairOf(args[0].Type().Elem, args[1].Type().Elem)
	return values.Array(pairType, out), nil
}

func arrPrefix(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	return affix(pos, "prefix", args, true)
}

func arrSuffix(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	return affix(pos, "suffix", args, false)
}

func affix(pos *werrors.SourcePosition, name string, args []values.Value, before bool) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, name, args, 2, 2); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KString || args[1].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, name, args[0].Type().String(), args[1].Type().String())
	}
	affixStr := args[0].AsString()
	elems := args[1].AsArray()
	out := make([]values.Value, len(elems))
	for i, e := range elems {
		if before {
			out[i] = values.Str(affixStr + e.String())
		} else {
			out[i] = values.Str(e.String() + affixStr)
		}
	}
	return values.Array(types.String, out), nil
}
