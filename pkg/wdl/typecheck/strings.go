package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func (s *signatures) registerStrings() {
	s.register("sub", sigSub)
	s.register("sep", sigSep)
	s.register("basename", sigBasename)
	s.register("dirname", sigDirname)
}

func sigSub(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "sub", args, 3, 3); err != nil {
		return types.String, err
	}
	return types.String, nil
}

func sigSep(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "sep", args, 2, 2); err != nil {
		return types.String, err
	}
	if args[0].Kind != types.KString {
		return types.String, werrors.NewIncompatibleOperandError(pos, "sep", args[0].String(), "")
	}
	if args[1].Kind != types.KArray {
		return types.String, werrors.NewNotAnArrayError(pos, args[1].String())
	}
	return types.String, nil
}

func sigBasename(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "basename", args, 1, 2); err != nil {
		return types.String, err
	}
	if !isFileLike(args[0]) {
		return types.String, werrors.NewIncompatibleOperandError(pos, "basename", args[0].String(), "")
	}
	return types.String, nil
}

func sigDirname(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "dirname", args, 1, 1); err != nil {
		return types.String, err
	}
	if !isFileLike(args[0]) {
		return types.String, werrors.NewIncompatibleOperandError(pos, "dirname", args[0].String(), "")
	}
	return types.String, nil
}
