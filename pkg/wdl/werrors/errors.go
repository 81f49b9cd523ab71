// Package werrors defines the single error taxonomy used throughout the WDL
// kernel: every syntax, static-analysis, and runtime failure is a *WDLError
// carrying a Kind, a message, an optional source position, and a small bag
// of structured Extra fields for the offending name/type/path.
package werrors

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a WDLError. These map one-to-one onto the error taxonomy.
type Kind string

const (
	KindSyntax              Kind = "Syntax"
	KindImport              Kind = "Import"
	KindValidation          Kind = "Validation"
	KindInvalidType         Kind = "InvalidType"
	KindIndeterminateType   Kind = "IndeterminateType"
	KindNoSuchTask          Kind = "NoSuchTask"
	KindNoSuchCall          Kind = "NoSuchCall"
	KindNoSuchFunction      Kind = "NoSuchFunction"
	KindNoSuchInput         Kind = "NoSuchInput"
	KindNoSuchMember        Kind = "NoSuchMember"
	KindUnknownIdentifier   Kind = "UnknownIdentifier"
	KindWrongArity          Kind = "WrongArity"
	KindStaticTypeMismatch  Kind = "StaticTypeMismatch"
	KindIncompatibleOperand Kind = "IncompatibleOperand"
	KindNotAnArray          Kind = "NotAnArray"
	KindCircularDependency  Kind = "CircularDependencies"
	KindMultipleValidation  Kind = "MultipleValidation"
	KindEval                Kind = "Eval"
	KindOutOfBounds         Kind = "OutOfBounds"
	KindEmptyArray          Kind = "EmptyArray"
	KindNullValue           Kind = "NullValue"
	KindInput               Kind = "Input"
	KindRunFailed           Kind = "RunFailed"
	KindTaskTimeout         Kind = "TaskTimeout"
)

// SourcePosition locates a diagnostic in a document. One-based, totally
// ordered by (Line, Col).
type SourcePosition struct {
	URI      string
	AbsPath  string
	Line     int
	Col      int
	EndLine  int
	EndCol   int
}

func (p *SourcePosition) String() string {
	if p == nil {
		return "<unknown position>"
	}
	name := p.URI
	if name == "" {
		name = p.AbsPath
	}
	return fmt.Sprintf("%s:%d:%d", name, p.Line, p.Col)
}

// Less orders positions by line then column, matching the total order the
// type checker relies on when sorting accumulated errors.
func (p *SourcePosition) Less(other *SourcePosition) bool {
	if p == nil || other == nil {
		return p == nil && other != nil
	}
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Col < other.Col
}

// WDLError is the single error type produced anywhere in the kernel.
type WDLError struct {
	Kind    Kind
	Message string
	Pos     *SourcePosition
	Extra   map[string]any
}

func (e *WDLError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Pos.String())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WDLError) WithExtra(key string, val any) *WDLError {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = val
	return e
}

func newErr(kind Kind, pos *SourcePosition, format string, args ...any) *WDLError {
	return &WDLError{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func NewSyntaxError(pos *SourcePosition, format string, args ...any) *WDLError {
	return newErr(KindSyntax, pos, format, args...)
}

func NewImportError(pos *SourcePosition, uri string) *WDLError {
	return newErr(KindImport, pos, "cannot resolve import %q", uri).WithExtra("uri", uri)
}

func NewValidationError(pos *SourcePosition, format string, args ...any) *WDLError {
	return newErr(KindValidation, pos, format, args...)
}

func NewInvalidTypeError(pos *SourcePosition, format string, args ...any) *WDLError {
	return newErr(KindInvalidType, pos, format, args...)
}

func NewIndeterminateTypeError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindIndeterminateType, pos, "cannot determine type of %q", name).WithExtra("name", name)
}

func NewNoSuchTaskError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindNoSuchTask, pos, "no such task %q", name).WithExtra("name", name)
}

func NewNoSuchCallError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindNoSuchCall, pos, "no such call %q", name).WithExtra("name", name)
}

func NewNoSuchFunctionError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindNoSuchFunction, pos, "no such function %q", name).WithExtra("name", name)
}

func NewNoSuchInputError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindNoSuchInput, pos, "no such input %q", name).WithExtra("name", name)
}

func NewNoSuchMemberError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindNoSuchMember, pos, "no such member %q", name).WithExtra("name", name)
}

func NewUnknownIdentifierError(pos *SourcePosition, name string) *WDLError {
	return newErr(KindUnknownIdentifier, pos, "unknown identifier %q", name).WithExtra("name", name)
}

func NewWrongArityError(pos *SourcePosition, fn string, want, got int) *WDLError {
	return newErr(KindWrongArity, pos, "%s expects %d argument(s), got %d", fn, want, got).
		WithExtra("function", fn)
}

// NewStaticTypeMismatch reports a coercion failure found by the type
// checker. It attaches a hint when the mismatch matches one of the two
// recognized patterns: Float into Int, or T? into T.
func NewStaticTypeMismatch(pos *SourcePosition, expected, actual string) *WDLError {
	e := newErr(KindStaticTypeMismatch, pos, "expected %s but got %s", expected, actual)
	e.WithExtra("expected", expected).WithExtra("actual", actual)
	switch {
	case actual == "Float" && expected == "Int":
		e.Message += " (perhaps try floor() or round())"
	case strings.HasSuffix(actual, "?") && strings.TrimSuffix(actual, "?") == expected:
		e.Message += " (perhaps try select_first())"
	}
	return e
}

func NewIncompatibleOperandError(pos *SourcePosition, op string, lhs, rhs string) *WDLError {
	return newErr(KindIncompatibleOperand, pos, "operator %q not applicable to %s and %s", op, lhs, rhs)
}

func NewNotAnArrayError(pos *SourcePosition, actual string) *WDLError {
	return newErr(KindNotAnArray, pos, "expected an array but got %s", actual)
}

func NewCircularDependencyError(pos *SourcePosition, cycle []string) *WDLError {
	return newErr(KindCircularDependency, pos, "circular dependency: %s", strings.Join(cycle, " -> ")).
		WithExtra("cycle", cycle)
}

func NewEvalError(pos *SourcePosition, format string, args ...any) *WDLError {
	return newErr(KindEval, pos, format, args...)
}

func NewOutOfBoundsError(pos *SourcePosition, idx, length int) *WDLError {
	return newErr(KindOutOfBounds, pos, "index %d out of bounds for array of length %d", idx, length)
}

func NewEmptyArrayError(pos *SourcePosition) *WDLError {
	return newErr(KindEmptyArray, pos, "Array[T]+ requires at least one element")
}

func NewNullValueError(pos *SourcePosition, context string) *WDLError {
	return newErr(KindNullValue, pos, "unexpected null value in %s", context)
}

func NewInputError(pos *SourcePosition, format string, args ...any) *WDLError {
	return newErr(KindInput, pos, format, args...)
}

func NewRunFailedError(runID string, exitCode int, command string) *WDLError {
	return newErr(KindRunFailed, nil, "run %s failed with exit code %d", runID, exitCode).
		WithExtra("run_id", runID).WithExtra("exit_code", exitCode).WithExtra("command", command)
}

func NewTaskTimeoutError(runID string) *WDLError {
	return newErr(KindTaskTimeout, nil, "run %s exceeded its wall-clock timeout", runID).
		WithExtra("run_id", runID)
}

// MultipleValidation wraps a sorted collection of accumulated errors,
// produced only by the type checker (spec: all other subsystems fail fast).
type MultipleValidation struct {
	Errors []*WDLError
}

func (m *MultipleValidation) Error() string {
	parts := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d validation error(s):\n%s", len(m.Errors), strings.Join(parts, "\n"))
}

// NewMultipleValidation sorts the given errors by source position and
// wraps them. An empty slice yields a nil error, matching "a successful
// check produces no errors".
func NewMultipleValidation(errs []*WDLError) error {
	if len(errs) == 0 {
		return nil
	}
	sorted := make([]*WDLError, len(errs))
	copy(sorted, errs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pos.Less(sorted[j].Pos)
	})
	return &MultipleValidation{Errors: sorted}
}

// Collector accumulates errors during a single type-check pass.
type Collector struct {
	errs []*WDLError
}

func (c *Collector) Add(err *WDLError) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

func (c *Collector) HasErrors() bool {
	return len(c.errs) > 0
}

func (c *Collector) Err() error {
	return NewMultipleValidation(c.errs)
}
