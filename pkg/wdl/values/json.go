package values

import (
	"encoding/json"
	"sort"

	"github.com/bioflowy/flowy/pkg/wdl/types"
)

// ToJSON implements the JSON encoding rules of spec.md 3.3: Map encodes as
// a JSON object via key stringification (in insertion order, the resolved
// Open Question), Pair encodes as {left, right}, struct coercion fills
// missing optional members with null, Null encodes as JSON null.
func (v Value) ToJSON() any {
	if v.isNull {
		return nil
	}
	switch v.typ.Kind {
	case types.KBoolean:
		return v.boolVal
	case types.KInt:
		return v.intVal
	case types.KFloat:
		return v.floatVal
	case types.KString, types.KFile, types.KDirectory:
		return v.strVal
	case types.KArray:
		out := make([]any, len(v.arrVal))
		for i, e := range v.arrVal {
			out[i] = e.ToJSON()
		}
		return out
	case types.KMap:
		out := orderedJSONObject{}
		v.mapVal.Each(func(k, val Value) {
			out.set(k.MapKeyString(), val.ToJSON())
		})
		return out
	case types.KPair:
		return map[string]any{
			"left":  v.pairVal.Left.ToJSON(),
			"right": v.pairVal.Right.ToJSON(),
		}
	case types.KStruct:
		out := orderedJSONObject{}
		v.structV.Members.Each(func(k, val Value) {
			out.set(k.MapKeyString(), val.ToJSON())
		})
		return out
	case types.KObject:
		out := orderedJSONObject{}
		v.mapVal.Each(func(k, val Value) {
			out.set(k.MapKeyString(), val.ToJSON())
		})
		return out
	}
	return nil
}

// MapKeyString returns the display form of a value used as a JSON object
// key (map/struct keys are always primitive).
func (v Value) MapKeyString() string {
	if v.typ.Kind == types.KString || v.typ.Kind == types.KFile || v.typ.Kind == types.KDirectory {
		return v.strVal
	}
	return v.String()
}

// orderedJSONObject preserves Map/struct key insertion order through
// encoding/json, which otherwise sorts map[string]any keys alphabetically.
type orderedJSONObject struct {
	keys []string
	vals map[string]any
}

func (o *orderedJSONObject) set(k string, v any) {
	if o.vals == nil {
		o.vals = make(map[string]any)
	}
	if _, exists := o.vals[k]; !exists {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

func (o orderedJSONObject) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, _ := json.Marshal(k)
		buf = append(buf, kb...)
		buf = append(buf, ':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// FromJSON decodes a decoded-JSON value (from encoding/json.Unmarshal into
// any) into a Value typed against the expected WDL type, used for JSON
// input binding (spec.md 6) and the read_json stdlib function.
func FromJSON(raw any, expected *types.Type) Value {
	switch x := raw.(type) {
	case nil:
		return Null(expected)
	case bool:
		return Bool(x)
	case float64:
		if expected != nil && expected.Kind == types.KInt && x == float64(int64(x)) {
			return Int(int64(x))
		}
		if x == float64(int64(x)) && (expected == nil || expected.Kind == types.KAny) {
			return Int(int64(x))
		}
		return Float(x)
	case string:
		return Str(x)
	case []any:
		elemType := types.Any
		if expected != nil && expected.Kind == types.KArray {
			elemType = expected.Elem
		}
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = FromJSON(e, elemType)
		}
		return Array(elemType, out)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewOrderedMap()
		valType := types.Any
		if expected != nil && expected.Kind == types.KMap {
			valType = expected.Value
		}
		for _, k := range keys {
			m.Set(Str(k), FromJSON(x[k], valType))
		}
		if expected != nil && expected.Kind == types.KStruct {
			sv, err := Struct(expected, m)
			if err == nil {
				return sv
			}
		}
		return Map(types.String, valType, m)
	default:
		return Null(types.Any)
	}
}
