package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func (s *signatures) registerArrays() {
	s.register("range", sigRange)
	s.register("length", sigLength)
	s.register("flatten", sigFlatten)
	s.register("select_first", sigSelectFirst)
	s.register("select_all", sigSelectAll)
	s.register("defined", sigDefined)
	s.register("transpose", sigTranspose)
	s.register("zip", sigZipCross)
	s.register("cross", sigZipCross)
	s.register("prefix", sigPrefixSuffix)
	s.register("suffix", sigPrefixSuffix)
}

func sigRange(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.Int)
	if err := requireArgs(pos, "range", args, 1, 1); err != nil {
		return ret, err
	}
	if args[0].Kind != types.KInt {
		return ret, werrors.NewIncompatibleOperandError(pos, "range", args[0].String(), "")
	}
	return ret, nil
}

func sigLength(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "length", args, 1, 1); err != nil {
		return types.Int, err
	}
	if args[0].Kind != types.KArray && args[0].Kind != types.KMap {
		return types.Int, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	return types.Int, nil
}

// sigFlatten unwraps one level of Array[Array[T]] -> Array[T] (spec.md 4.5).
func sigFlatten(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.Any)
	if err := requireArgs(pos, "flatten", args, 1, 1); err != nil {
		return ret, err
	}
	outer := args[0]
	if outer.Kind != types.KArray || outer.Elem.Kind != types.KArray {
		return ret, werrors.NewNotAnArrayError(pos, outer.String())
	}
	return types.ArrayOf(outer.Elem.Elem), nil
}

// sigSelectFirst strips one level of optionality off the array's element
// type: given Array[T?] it returns T, not T? (spec.md 4.5's rule that the
// result must carry the non-optional tag for later coercion).
func sigSelectFirst(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "select_first", args, 1, 1); err != nil {
		return types.Any, err
	}
	if args[0].Kind != types.KArray {
		return types.Any, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	return args[0].Elem.Required(), nil
}

func sigSelectAll(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.Any)
	if err := requireArgs(pos, "select_all", args, 1, 1); err != nil {
		return ret, err
	}
	if args[0].Kind != types.KArray {
		return ret, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	return types.ArrayOf(args[0].Elem.Required()), nil
}

func sigDefined(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "defined", args, 1, 1); err != nil {
		return types.Boolean, err
	}
	return types.Boolean, nil
}

func sigTranspose(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.ArrayOf(types.Any))
	if err := requireArgs(pos, "transpose", args, 1, 1); err != nil {
		return ret, err
	}
	if args[0].Kind != types.KArray || args[0].Elem.Kind != types.KArray {
		return ret, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	return args[0], nil
}

func sigZipCross(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.PairOf(types.Any, types.Any))
	if err := requireArgs(pos, "zip/cross", args, 2, 2); err != nil {
		return ret, err
	}
	if args[0].Kind != types.KArray {
		return ret, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	if args[1].Kind != types.KArray {
		return ret, werrors.NewNotAnArrayError(pos, args[1].String())
	}
	return types.ArrayOf(types.PairOf(args[0].Elem, args[1].Elem)), nil
}

func sigPrefixSuffix(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.String)
	if err := requireArgs(pos, "prefix/suffix", args, 2, 2); err != nil {
		return ret, err
	}
	if args[0].Kind != types.KString {
		return ret, werrors.NewIncompatibleOperandError(pos, "prefix/suffix", args[0].String(), "")
	}
	if args[1].Kind != types.KArray {
		return ret, werrors.NewNotAnArrayError(pos, args[1].String())
	}
	return ret, nil
}
