package typecheck

import (
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

func (s *signatures) registerIO() {
	s.register("read_lines", sigReadLines)
	s.register("read_string", sigReadString)
	s.register("read_int", sigReadInt)
	s.register("read_float", sigReadFloat)
	s.register("read_boolean", sigReadBoolean)
	s.register("read_tsv", sigReadTSV)
	s.register("read_json", sigReadJSON)
	s.register("write_lines", sigWriteLines)
	s.register("write_tsv", sigWriteTSV)
	s.register("write_json", sigWriteJSON)
	s.register("stdout", sigNoArgsFile)
	s.register("stderr", sigNoArgsFile)
	s.register("glob", sigGlob)
	s.register("size", sigSize)
}

func requireFileArg(pos *werrors.SourcePosition, name string, args []*types.Type) *werrors.WDLError {
	if err := requireArgs(pos, name, args, 1, 1); err != nil {
		return err
	}
	if !isFileLike(args[0]) {
		return werrors.NewIncompatibleOperandError(pos, name, args[0].String(), "")
	}
	return nil
}

func sigReadLines(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.ArrayOf(types.String), requireFileArg(pos, "read_lines", args)
}

func sigReadString(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.String, requireFileArg(pos, "read_string", args)
}

func sigReadInt(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.Int, requireFileArg(pos, "read_int", args)
}

func sigReadFloat(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.Float, requireFileArg(pos, "read_float", args)
}

func sigReadBoolean(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.Boolean, requireFileArg(pos, "read_boolean", args)
}

func sigReadTSV(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.ArrayOf(types.ArrayOf(types.String)), requireFileArg(pos, "read_tsv", args)
}

// sigReadJSON's static result type is unknowable ahead of reading the file
// (the JSON shape drives it), so it returns Any; the caller's enclosing
// declaration type drives the coercion that narrows it (spec.md 4.5).
func sigReadJSON(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	return types.Any, requireFileArg(pos, "read_json", args)
}

func sigWriteLines(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "write_lines", args, 1, 1); err != nil {
		return types.File, err
	}
	if args[0].Kind != types.KArray {
		return types.File, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	return types.File, nil
}

func sigWriteTSV(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "write_tsv", args, 1, 1); err != nil {
		return types.File, err
	}
	if args[0].Kind != types.KArray || args[0].Elem.Kind != types.KArray {
		return types.File, werrors.NewNotAnArrayError(pos, args[0].String())
	}
	return types.File, nil
}

func sigWriteJSON(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "write_json", args, 1, 1); err != nil {
		return types.File, err
	}
	return types.File, nil
}

func sigNoArgsFile(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "stdout/stderr", args, 0, 0); err != nil {
		return types.File, err
	}
	return types.File, nil
}

func sigGlob(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	ret := types.ArrayOf(types.File)
	if err := requireArgs(pos, "glob", args, 1, 1); err != nil {
		return ret, err
	}
	if args[0].Kind != types.KString {
		return ret, werrors.NewIncompatibleOperandError(pos, "glob", args[0].String(), "")
	}
	return ret, nil
}

func sigSize(pos *werrors.SourcePosition, args []*types.Type) (*types.Type, *werrors.WDLError) {
	if err := requireArgs(pos, "size", args, 1, 2); err != nil {
		return types.Float, err
	}
	t := args[0].Required()
	fileArray := t.Kind == types.KArray && isFileLike(t.Elem.Required())
	if !isFileLike(t) && !fileArray {
		return types.Float, werrors.NewIncompatibleOperandError(pos, "size", args[0].String(), "")
	}
	if len(args) == 2 && args[1].Kind != types.KString {
		return types.Float, werrors.NewIncompatibleOperandError(pos, "size", args[1].String(), "")
	}
	return types.Float, nil
}
