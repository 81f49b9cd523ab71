package stdlib

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// registerStrings registers the string-family functions (spec.md 4.5).
func (r *Registry) registerStrings() {
	r.register("sub", strSub)
	r.register("sep", strSep)
	r.register("basename", strBasename)
	r.register("dirname", strDirname)
}

func strSub(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "sub", args, 3, 3); err != nil {
		return values.Value{}, err
	}
	for _, a := range args {
		if a.Type().Kind != types.KString {
			return values.Value{}, werrors.NewIncompatibleOperandError(pos, "sub", a.Type().String(), "")
		}
	}
	re, err := regexp.Compile(args[1].AsString())
	if err != nil {
		return values.Value{}, werrors.NewEvalError(pos, "sub: invalid pattern %q: %s", args[1].AsString(), err)
	}
	return values.Str(re.ReplaceAllString(args[0].AsString(), args[2].AsString())), nil
}

func strSep(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "sep", args, 2, 2); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KString || args[1].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "sep", args[0].Type().String(), args[1].Type().String())
	}
	elems := args[1].AsArray()
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return values.Str(strings.Join(parts, args[0].AsString())), nil
}

func strBasename(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "basename", args, 1, 2); err != nil {
		return values.Value{}, err
	}
	if !isStringyKind(args[0].Type().Kind) {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "basename", args[0].Type().String(), "")
	}
	base := filepath.Base(args[0].AsString())
	if len(args) == 2 {
		if args[1].Type().Kind != types.KString {
			return values.Value{}, werrors.NewIncompatibleOperandError(pos, "basename", args[1].Type().String(), "")
		}
		base = strings.TrimSuffix(base, args[1].AsString())
	}
	return values.Str(base), nil
}

func strDirname(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "dirname", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if !isStringyKind(args[0].Type().Kind) {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "dirname", args[0].Type().String(), "")
	}
	return values.Str(filepath.Dir(args[0].AsString())), nil
}

func isStringyKind(k types.Kind) bool {
	return k == types.KString || k == types.KFile || k == types.KDirectory
}
