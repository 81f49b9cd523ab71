package values

import (
	"strconv"
	"strings"

	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Coerce implements the runtime coercion operation mirroring the static
// predicate types.Coerces, plus the runtime-only failure modes spec.md 3.3
// lists: string parse failures, null into non-optional, empty Array[T]+,
// and per-key struct validation.
func (v Value) Coerce(to *types.Type) (Value, *werrors.WDLError) {
	if v.isNull {
		if !to.Optional {
			return Value{}, werrors.NewNullValueError(nil, "coercion to "+to.String())
		}
		return Null(to), nil
	}
	if to.Kind == types.KAny {
		return v, nil
	}
	if to.Optional && v.typ.Kind == to.Kind {
		return v.coerceSameKind(to)
	}
	if to.Optional {
		return v.Coerce(to.Required())
	}

	switch {
	case v.typ.Kind == to.Kind:
		return v.coerceSameKind(to)
	case v.typ.Kind == types.KInt && to.Kind == types.KFloat:
		return Float(float64(v.intVal)), nil
	case v.typ.Kind == types.KString && to.Kind == types.KInt:
		i, err := strconv.ParseInt(strings.TrimSpace(v.strVal), 10, 64)
		if err != nil {
			return Value{}, werrors.NewEvalError(nil, "cannot parse %q as Int", v.strVal)
		}
		return Int(i), nil
	case v.typ.Kind == types.KString && to.Kind == types.KFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.strVal), 64)
		if err != nil {
			return Value{}, werrors.NewEvalError(nil, "cannot parse %q as Float", v.strVal)
		}
		return Float(f), nil
	case v.typ.Kind == types.KString && to.Kind == types.KFile:
		return FileVal(v.strVal), nil
	case v.typ.Kind == types.KString && to.Kind == types.KDirectory:
		return DirVal(v.strVal), nil
	case to.Kind == types.KString:
		return Str(v.String()), nil
	case to.Kind == types.KArray && v.typ.Kind != types.KArray:
		elem, err := v.Coerce(to.Elem)
		if err != nil {
			return Value{}, err
		}
		return Array(to.Elem, []Value{elem}), nil
	case v.typ.Kind == types.KMap && to.Kind == types.KStruct:
		return v.coerceMapToStruct(to)
	case v.typ.Kind == types.KObject && to.Kind == types.KStruct:
		return v.coerceMapToStruct(to)
	}
	return Value{}, werrors.NewStaticTypeMismatch(nil, to.String(), v.typ.String())
}

func (v Value) coerceSameKind(to *types.Type) (Value, *werrors.WDLError) {
	switch v.typ.Kind {
	case types.KArray:
		if to.NonEmpty && len(v.arrVal) == 0 {
			return Value{}, werrors.NewEmptyArrayError(nil)
		}
		out := make([]Value, len(v.arrVal))
		for i, e := range v.arrVal {
			c, err := e.Coerce(to.Elem)
			if err != nil {
				return Value{}, err
			}
			out[i] = c
		}
		return Array(to.Elem, out), nil
	case types.KMap:
		out := NewOrderedMap()
		var outerErr *werrors.WDLError
		v.mapVal.Each(func(k, val Value) {
			if outerErr != nil {
				return
			}
			ck, err := k.Coerce(to.Key)
			if err != nil {
				outerErr = err
				return
			}
			cv, err := val.Coerce(to.Value)
			if err != nil {
				outerErr = err
				return
			}
			out.Set(ck, cv)
		})
		if outerErr != nil {
			return Value{}, outerErr
		}
		return Map(to.Key, to.Value, out), nil
	case types.KPair:
		l, err := v.pairVal.Left.Coerce(to.Left)
		if err != nil {
			return Value{}, err
		}
		r, err := v.pairVal.Right.Coerce(to.Right)
		if err != nil {
			return Value{}, err
		}
		return Pair(l, r), nil
	case types.KStruct:
		if v.typ.StructName != to.StructName {
			return Value{}, werrors.NewStaticTypeMismatch(nil, to.String(), v.typ.String())
		}
		return v, nil
	default:
		return v, nil
	}
}

// coerceMapToStruct coerces each declared member and fills missing
// optionals; map keys that are not declared members are kept as extras
// rather than rejected (SPEC_FULL.md Part D).
func (v Value) coerceMapToStruct(to *types.Type) (Value, *werrors.WDLError) {
	supplied := NewOrderedMap()
	if v.typ.Kind == types.KMap {
		v.mapVal.Each(func(k, val Value) { supplied.Set(k, val) })
	}
	return Struct(to, supplied)
}
