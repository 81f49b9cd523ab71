package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func (s *signatures) registerMath() {
	s.register("floor", sigRounding)
	s.register("ceil", sigRounding)
	s.register("round", sigRounding)
	s.register("min", sigMinMax)
	s.register("max", sigMinMax)
}

func sigRounding(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "floor/ceil/round", args, 1, 1); err != nil {
		return types.Int, err
	}
	if !isNumeric(args[0]) {
		return types.Int, werrors.NewIncompatibleOperandError(pos, "floor/ceil/round", args[0].String(), "")
	}
	return types.Int, nil
}

func sigMinMax(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "min/max", args, 2, 2); err != nil {
		return types.Int, err
	}
	if !isNumeric(args[0]) || !isNumeric(args[1]) {
		return types.Int, werrors.NewIncompatibleOperandError(pos, "min/max", args[0].String(), args[1].String())
	}
	if args[0].Kind == types.KFloat || args[1].Kind == types.KFloat {
		return types.Float, nil
	}
	return types.Int, nil
}
