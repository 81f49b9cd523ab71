package stdlib

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bioflowy/flowy/pkg/wdl/eval"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/values"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// registerIO registers the file I/O function group (spec.md 4.5). Every
// read goes through the task run's path allow-list (spec.md 4.8).
func (r *Registry) registerIO() {
	r.register("read_lines", r.readLines)
	r.register("read_string", r.readString)
	r.register("read_int", r.readInt)
	r.register("read_float", r.readFloat)
	r.register("read_boolean", r.readBoolean)
	r.register("read_tsv", r.readTSV)
	r.register("read_json", r.readJSON)
	r.register("write_lines", r.writeLines)
	r.register("write_tsv", r.writeTSV)
	r.register("write_json", r.writeJSON)
	r.register("stdout", r.stdoutFn)
	r.register("stderr", r.stderrFn)
	r.register("glob", r.globFn)
	r.register("size", r.sizeFn)
}

func (r *Registry) requireIO(pos *werrors.SourcePosition) (*IOContext, *werrors.WDLError) {
	if r.io == nil {
		return nil, werrors.NewEvalError(pos, "file I/O functions are unavailable outside a task run")
	}
	return r.io, nil
}

func (r *Registry) readFileChecked(pos *werrors.SourcePosition, path string) (string, *werrors.WDLError) {
	io, err := r.requireIO(pos)
	if err != nil {
		return "", err
	}
	if werr := io.Guard.Check(path); werr != nil {
		return "", werr
	}
	b, rerr := os.ReadFile(path)
	if rerr != nil {
		return "", werrors.NewInputError(pos, "cannot read %q: %s", path, rerr)
	}
	return string(b), nil
}

func pathArg(pos *werrors.SourcePosition, name string, args []values.Value) (string, *werrors.WDLError) {
	if err := requireArgs(pos, name, args, 1, 1); err != nil {
		return "", err
	}
	if !isStringyKind(args[0].Type().Kind) {
		return "", werrors.NewIncompatibleOperandError(pos, name, args[0].Type().String(), "")
	}
	return args[0].AsString(), nil
}

func (r *Registry) readLines(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_lines", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	content = strings.TrimSuffix(content, "\n")
	var lines []values.Value
	if content != "" {
		for _, l := range strings.Split(content, "\n") {
			lines = append(lines, values.Str(l))
		}
	}
	return values.Array(types.String, lines), nil
}

func (r *Registry) readString(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_string", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.TrimRight(content, "\n")), nil
}

func (r *Registry) readInt(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_int", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	i, ok := eval.ParseIntStrict(content)
	if !ok {
		return values.Value{}, werrors.NewEvalError(pos, "read_int: %q is not an integer", content)
	}
	return values.Int(i), nil
}

func (r *Registry) readFloat(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_float", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	f, ok := eval.ParseFloatStrict(content)
	if !ok {
		return values.Value{}, werrors.NewEvalError(pos, "read_float: %q is not a float", content)
	}
	return values.Float(f), nil
}

func (r *Registry) readBoolean(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_boolean", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "true":
		return values.Bool(true), nil
	case "false":
		return values.Bool(false), nil
	}
	return values.Value{}, werrors.NewEvalError(pos, "read_boolean: %q is not true/false", content)
}

func (r *Registry) readTSV(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_tsv", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	rows, rerr := parseTSV(content)
	if rerr != nil {
		return values.Value{}, werrors.NewEvalError(pos, "read_tsv: %s", rerr)
	}
	rowType := types.ArrayOf(types.String)
	out := make([]values.Value, len(rows))
	for i, row := range rows {
		cells := make([]values.Value, len(row))
		for j, c := range row {
			cells[j] = values.Str(c)
		}
		out[i] = values.Array(types.String, cells)
	}
	return values.Array(rowType, out), nil
}

func parseTSV(content string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func (r *Registry) readJSON(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	path, err := pathArg(pos, "read_json", args)
	if err != nil {
		return values.Value{}, err
	}
	content, err := r.readFileChecked(pos, path)
	if err != nil {
		return values.Value{}, err
	}
	var raw any
	if jerr := json.Unmarshal([]byte(content), &raw); jerr != nil {
		return values.Value{}, werrors.NewEvalError(pos, "read_json: %s", jerr)
	}
	return values.FromJSON(raw, types.Any), nil
}

func (r *Registry) newOutputFile(pos *werrors.SourcePosition, name string) (string, *werrors.WDLError) {
	io, err := r.requireIO(pos)
	if err != nil {
		return "", err
	}
	return filepath.Join(io.WorkDir, name+"-"+uuid.NewString()+".tmp"), nil
}

func (r *Registry) writeLines(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "write_lines", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "write_lines", args[0].Type().String(), "")
	}
	var sb strings.Builder
	for _, e := range args[0].AsArray() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return r.writeOut(pos, "write_lines", sb.String())
}

func (r *Registry) writeTSV(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "write_tsv", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	if args[0].Type().Kind != types.KArray {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "write_tsv", args[0].Type().String(), "")
	}
	var sb strings.Builder
	for _, row := range args[0].AsArray() {
		if row.Type().Kind != types.KArray {
			return values.Value{}, werrors.NewIncompatibleOperandError(pos, "write_tsv", row.Type().String(), "")
		}
		cells := row.AsArray()
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = c.String()
		}
		sb.WriteString(strings.Join(parts, "\t"))
		sb.WriteByte('\n')
	}
	return r.writeOut(pos, "write_tsv", sb.String())
}

func (r *Registry) writeJSON(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "write_json", args, 1, 1); err != nil {
		return values.Value{}, err
	}
	b, jerr := json.Marshal(args[0].ToJSON())
	if jerr != nil {
		return values.Value{}, werrors.NewEvalError(pos, "write_json: %s", jerr)
	}
	return r.writeOut(pos, "write_json", string(b))
}

func (r *Registry) writeOut(pos *werrors.SourcePosition, name, content string) (values.Value, *werrors.WDLError) {
	path, err := r.newOutputFile(pos, name)
	if err != nil {
		return values.Value{}, err
	}
	if werr := os.WriteFile(path, []byte(content), 0o644); werr != nil {
		return values.Value{}, werrors.NewEvalError(pos, "%s: cannot write %q: %s", name, path, werr)
	}
	return values.FileVal(path), nil
}

func (r *Registry) stdoutFn(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "stdout", args, 0, 0); err != nil {
		return values.Value{}, err
	}
	io, err := r.requireIO(pos)
	if err != nil {
		return values.Value{}, err
	}
	return values.FileVal(io.StdoutPath), nil
}

func (r *Registry) stderrFn(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "stderr", args, 0, 0); err != nil {
		return values.Value{}, err
	}
	io, err := r.requireIO(pos)
	if err != nil {
		return values.Value{}, err
	}
	return values.FileVal(io.StderrPath), nil
}

func (r *Registry) globFn(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	pattern, err := pathArg(pos, "glob", args)
	if err != nil {
		return values.Value{}, err
	}
	io, ierr := r.requireIO(pos)
	if ierr != nil {
		return values.Value{}, ierr
	}
	matches, gerr := filepath.Glob(filepath.Join(io.WorkDir, pattern))
	if gerr != nil {
		return values.Value{}, werrors.NewEvalError(pos, "glob: invalid pattern %q: %s", pattern, gerr)
	}
	out := make([]values.Value, len(matches))
	for i, m := range matches {
		out[i] = values.FileVal(m)
	}
	return values.Array(types.File, out), nil
}

var sizeUnits = map[string]float64{
	"b": 1, "k": 1e3, "kb": 1e3, "m": 1e6, "mb": 1e6, "g": 1e9, "gb": 1e9, "t": 1e12, "tb": 1e12,
	"ki": 1024, "kib": 1024, "mi": 1024 * 1024, "mib": 1024 * 1024,
	"gi": 1024 * 1024 * 1024, "gib": 1024 * 1024 * 1024,
}

func (r *Registry) sizeFn(pos *werrors.SourcePosition, args []values.Value) (values.Value, *werrors.WDLError) {
	if err := requireArgs(pos, "size", args, 1, 2); err != nil {
		return values.Value{}, err
	}
	if args[0].IsNull() {
		return values.Float(0), nil
	}
	if !isStringyKind(args[0].Type().Kind) {
		return values.Value{}, werrors.NewIncompatibleOperandError(pos, "size", args[0].Type().String(), "")
	}
	io, ierr := r.requireIO(pos)
	if ierr != nil {
		return values.Value{}, ierr
	}
	path := args[0].AsString()
	if werr := io.Guard.Check(path); werr != nil {
		return values.Value{}, werr
	}
	info, serr := os.Stat(path)
	if serr != nil {
		return values.Value{}, werrors.NewInputError(pos, "size: cannot stat %q: %s", path, serr)
	}
	bytes := float64(info.Size())
	if len(args) == 2 {
		if args[1].Type().Kind != types.KString {
			return values.Value{}, werrors.NewIncompatibleOperandError(pos, "size", args[1].Type().String(), "")
		}
		unit, ok := sizeUnits[strings.ToLower(args[1].AsString())]
		if !ok {
			return values.Value{}, werrors.NewEvalError(pos, "size: unknown unit %q", args[1].AsString())
		}
		bytes /= unit
	}
	return values.Float(bytes), nil
}
