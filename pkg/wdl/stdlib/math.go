package stdlib

import (
	"math"

	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// registerMath registers floor/ceil/round/min/max (spec.md 4.5).
func (r *Registry) registerMath() {
	r.register("floor", mathFloor)
	r.register("ceil", mathCeil)
	r.register("round", mathRound)
	r.register("min", mathMin)
	r.register("max", mathMax)
}

func asNumber(v values.Value) (float64, bool) {
	switch v.Type().Kind {
	case types.KInt:
		return float64(v.AsInt()), true
	case types.KFloat:
		return v.AsFloat(), true
	}
	return 0, false
}

func mathFloor(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "floor", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	f, ok := asNumber(args[0])
	if !ok {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "floor", args[0].Type().String(), "")
	}
	return values.Int(int64(math.Floor(f))), nil
}

func mathCeil(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "ceil", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	f, ok := asNumber(args[0])
	if !ok {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "ceil", args[0].Type().String(), "")
	}
	return values.Int(int64(math.Ceil(f))), nil
}

func mathRound(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "round", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	f, ok := asNumber(args[0])
	if !ok {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "round", args[0].Type().String(), "")
	}
	return values.Int(int64(math.Round(f))), nil
}

func mathMin(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	return minMax(pos, "min", args, func(a, b float64) bool { return a <= b })
}

func mathMax(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	return minMax(pos, "max", args, func(a, b float64) bool { return a >= b })
}

// minMax selects between two Int/Float arguments, staying Int when both
// inputs are Int and promoting to Float otherwise (spec.md 4.4's Int/Float
// promotion rule applied to a polymorphic function, per spec.md 4.5).
func minMax(pos *werrors.SourcePosition, name string, args []values.Value, pick func(a, b float64) bool) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, name, args, 2, 2); err != nil {
		return values.Value{}, err
	}
	a, aOk := asNumber(args[0])
	b, bOk := asNumber(args[1])
	if !aOk || !bOk {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, name, args[0].Type().String(), args[1].Type().String())
	}
	if args[0].Type().Kind == types.KInt && args[1].Type().Kind == types.KInt {
		if pick(a, b) {
			return args[0], nil
		}
		return args[1], nil
	}
	if pick(a, b) {
		return values.Float(a), nil
	}
	return values.Float(b), nil
}
