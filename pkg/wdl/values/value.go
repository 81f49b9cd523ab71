// Package values implements WDL runtime values: the tagged union mirroring
// the type lattice in pkg/wdl/types, with coercion, equality, truthiness,
// and JSON encode/decode per spec.md 3.3.
package values

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Value is a tagged union over the runtime value kinds: Null, Boolean,
// Int, Float, String, File, Directory, Array, Map, Pair, Struct. Every
// value carries its WDL Type for introspection and coercion.
type Value struct {
	typ      *types.Type
	isNull   bool
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	arrVal   []Value
	mapVal   *OrderedMap
	pairVal  *PairVal
	structV  *StructVal
}

// PairVal holds the two sides of a Pair[L,R] value.
type PairVal struct {
	Left  Value
	Right Value
}

// StructVal holds a struct instance's member bindings plus any keys
// present on the source Map/Object that were not declared struct members
// — retained rather than dropped, per the original interpreter's
// validating struct constructor.
type StructVal struct {
	Members    *OrderedMap
	ExtraKeys  []string
}

// OrderedMap is the Map[K,V] runtime representation: WDL Map values
// preserve insertion order (the resolved Open Question in spec.md 9).
type OrderedMap struct {
	keys   []Value
	keyStr []string // stringified form, used for lookup/dedup
	vals   map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]Value)}
}

func (m *OrderedMap) Get(key Value) (Value, bool) {
	v, ok := m.vals[key.MapKey()]
	return v, ok
}

func (m *OrderedMap) Set(key, val Value) {
	ks := key.MapKey()
	if _, exists := m.vals[ks]; !exists {
		m.keys = append(m.keys, key)
		m.keyStr = append(m.keyStr, ks)
	}
	m.vals[ks] = val
}

func (m *OrderedMap) Len() int { return len(m.keys) }

func (m *OrderedMap) Each(fn func(k, v Value)) {
	for _, k := range m.keys {
		fn(k, m.vals[k.MapKey()])
	}
}

func (m *OrderedMap) Keys() []Value { return append([]Value(nil), m.keys...) }

// Constructors.

func Null(t *types.Type) Value {
	if t == nil {
		t = types.NoneType
	}
	return Value{typ: t.Opt(), isNull: true}
}

func Bool(b bool) Value { return Value{typ: types.Boolean, boolVal: b} }
func Int(i int64) Value { return Value{typ: types.Int, intVal: i} }
func Float(f float64) Value { return Value{typ: types.Float, floatVal: f} }
func Str(s string) Value { return Value{typ: types.String, strVal: s} }
func FileVal(path string) Value { return Value{typ: types.File, strVal: path} }
func DirVal(path string) Value { return Value{typ: types.Directory, strVal: path} }

// Array constructs an Array[elemType] value. The nonempty flag on the
// resulting type is derived from the actual element count, matching the
// original interpreter's validating Value constructor (see SPEC_FULL.md
// Part D) rather than only being checked lazily at a `+` coercion.
func Array(elemType *types.Type, elems []Value) Value {
	t := &types.Type{Kind: types.KArray, Elem: elemType, NonEmpty: len(elems) > 0}
	return Value{typ: t, arrVal: elems}
}

func Map(keyType, valType *types.Type, m *OrderedMap) Value {
	return Value{typ: types.MapOf(keyType, valType), mapVal: m}
}

func Pair(left, right Value) Value {
	return Value{typ: types.PairOf(left.Type(), right.Type()), pairVal: &PairVal{Left: left, Right: right}}
}

// Struct constructs a struct instance, filling any declared-but-unsupplied
// optional members with Null and recording keys present in members that
// are not declared on the struct as ExtraKeys (supplemented behavior, see
// SPEC_FULL.md Part D).
func Struct(structType *types.Type, supplied *OrderedMap) (Value, *werrors.WDLError) {
	out := NewOrderedMap()
	var extra []string
	for name, memberType := range structType.Members {
		if v, ok := supplied.Get(Str(name)); ok {
			coerced, err := v.Coerce(memberType)
			if err != nil {
				return Value{}, err
			}
			out.Set(Str(name), coerced)
		} else if memberType.Optional {
			out.Set(Str(name), Null(memberType))
		} else {
			return Value{}, werrors.NewInputError(nil, "struct %s missing required member %q", structType.StructName, name)
		}
	}
	supplied.Each(func(k, v Value) {
		name := k.AsString()
		if _, declared := structType.Members[name]; !declared {
			extra = append(extra, name)
		}
	})
	sort.Strings(extra)
	return Value{typ: structType, structV: &StructVal{Members: out, ExtraKeys: extra}}, nil
}

// Accessors.

func (v Value) Type() *types.Type { return v.typ }
func (v Value) IsNull() bool      { return v.isNull }
func (v Value) AsBool() bool      { return v.boolVal }
func (v Value) AsInt() int64      { return v.intVal }
func (v Value) AsFloat() float64  { return v.floatVal }
func (v Value) AsString() string  { return v.strVal }
func (v Value) AsArray() []Value  { return v.arrVal }
func (v Value) AsMap() *OrderedMap { return v.mapVal }
func (v Value) AsPair() *PairVal  { return v.pairVal }
func (v Value) AsStruct() *StructVal { return v.structV }

// MapKey returns the stable string form used to dedup/lookup a Map key
// value (WDL map keys are always primitive: Int, String, File, etc.).
func (v Value) MapKey() string {
	switch v.typ.Kind {
	case types.KInt:
		return "i:" + strconv.FormatInt(v.intVal, 10)
	case types.KFloat:
		return "f:" + strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	case types.KBoolean:
		return "b:" + strconv.FormatBool(v.boolVal)
	default:
		return "s:" + v.strVal
	}
}

// Truthy reports a value's boolean interpretation, used by `if` and `&&`/
// `||` short-circuit evaluation.
func (v Value) Truthy() bool {
	if v.isNull {
		return false
	}
	switch v.typ.Kind {
	case types.KBoolean:
		return v.boolVal
	case types.KInt:
		return v.intVal != 0
	case types.KFloat:
		return v.floatVal != 0
	case types.KString, types.KFile, types.KDirectory:
		return v.strVal != ""
	case types.KArray:
		return len(v.arrVal) > 0
	default:
		return true
	}
}

// String renders a value using the fixed stringification format spec.md
// 4.4 requires for placeholders: Int decimal, Float %.6f, Bool true/false.
func (v Value) String() string {
	if v.isNull {
		return ""
	}
	switch v.typ.Kind {
	case types.KBoolean:
		if v.boolVal {
			return "true"
		}
		return "false"
	case types.KInt:
		return strconv.FormatInt(v.intVal, 10)
	case types.KFloat:
		return fmt.Sprintf("%.6f", v.floatVal)
	case types.KString, types.KFile, types.KDirectory:
		return v.strVal
	case types.KArray:
		parts := make([]string, len(v.arrVal))
		for i, e := range v.arrVal {
			parts[i] = e.String()
		}
		b, _ := json.Marshal(parts)
		return string(b)
	default:
		b, _ := json.Marshal(v.ToJSON())
		return string(b)
	}
}

// Equal implements deep equality for equatable types (spec.md 3.2, 4.4).
func Equal(a, b Value) bool {
	if !types.Equatable(a.typ, b.typ) {
		return false
	}
	if a.isNull || b.isNull {
		return a.isNull == b.isNull
	}
	switch a.typ.Kind {
	case types.KBoolean:
		return a.boolVal == b.boolVal
	case types.KInt:
		if b.typ.Kind == types.KFloat {
			return float64(a.intVal) == b.floatVal
		}
		return a.intVal == b.intVal
	case types.KFloat:
		if b.typ.Kind == types.KInt {
			return a.floatVal == float64(b.intVal)
		}
		return a.floatVal == b.floatVal
	case types.KString, types.KFile, types.KDirectory:
		return a.strVal == b.strVal
	case types.KArray:
		if len(a.arrVal) != len(b.arrVal) {
			return false
		}
		for i := range a.arrVal {
			if !Equal(a.arrVal[i], b.arrVal[i]) {
				return false
			}
		}
		return true
	case types.KMap:
		if a.mapVal.Len() != b.mapVal.Len() {
			return false
		}
		eq := true
		a.mapVal.Each(func(k, v Value) {
			bv, ok := b.mapVal.Get(k)
			if !ok || !Equal(v, bv) {
				eq = false
			}
		})
		return eq
	case types.KPair:
		return Equal(a.pairVal.Left, b.pairVal.Left) && Equal(a.pairVal.Right, b.pairVal.Right)
	case types.KStruct:
		if a.structV.Members.Len() != b.structV.Members.Len() {
			return false
		}
		eq := true
		a.structV.Members.Each(func(k, v Value) {
			bv, ok := b.structV.Members.Get(k)
			if !ok || !Equal(v, bv) {
				eq = false
			}
		})
		return eq
	}
	return false
}
