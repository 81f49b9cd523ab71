// Package types implements the WDL static type lattice: primitive and
// compound types, the optional/nonempty flags, and the coercion predicate
// that both the type checker and the runtime evaluator consult.
package types

import "fmt"

// Kind discriminates the tagged union of Type. There is no open type
// hierarchy; every operation on Type switches on Kind.
type Kind int

const (
	KBoolean Kind = iota
	KInt
	KFloat
	KString
	KFile
	KDirectory
	KArray
	KMap
	KPair
	KObject
	KStruct
	KAny
	KNone
)

// Type is the immutable, structurally-compared representation of a WDL
// type. Compound kinds use the Elem/Key/Value/Members fields; StructName
// is set only for KStruct.
type Type struct {
	Kind       Kind
	Optional   bool
	NonEmpty   bool // Array[T]+
	Elem       *Type
	Key        *Type
	Value      *Type
	Left       *Type
	Right      *Type
	Members    map[string]*Type // nil until a struct instance is resolved
	StructName string
	// Unresolved is true for a struct reference the parser produced before
	// the document's struct_typedefs were available; type-check must
	// resolve it against the document before any coercion query.
	Unresolved bool
}

func Prim(k Kind) *Type { return &Type{Kind: k} }

var (
	Boolean   = Prim(KBoolean)
	Int       = Prim(KInt)
	Float     = Prim(KFloat)
	String    = Prim(KString)
	File      = Prim(KFile)
	Directory = Prim(KDirectory)
	Any       = Prim(KAny)
	NoneType  = Prim(KNone)
)

func ArrayOf(elem *Type) *Type       { return &Type{Kind: KArray, Elem: elem} }
func NonEmptyArrayOf(elem *Type) *Type {
	return &Type{Kind: KArray, Elem: elem, NonEmpty: true}
}
func MapOf(k, v *Type) *Type { return &Type{Kind: KMap, Key: k, Value: v} }
func PairOf(l, r *Type) *Type { return &Type{Kind: KPair, Left: l, Right: r} }
func ObjectType() *Type        { return &Type{Kind: KObject} }
func StructRef(name string) *Type {
	return &Type{Kind: KStruct, StructName: name, Unresolved: true}
}
func ResolvedStruct(name string, members map[string]*Type) *Type {
	return &Type{Kind: KStruct, StructName: name, Members: members}
}

// Opt returns t with the optional flag set, per "every type carries an
// optional flag (T? in source syntax)".
func (t *Type) Opt() *Type {
	c := *t
	c.Optional = true
	return &c
}

// Required returns t with the optional flag cleared.
func (t *Type) Required() *Type {
	c := *t
	c.Optional = false
	return &c
}

func (t *Type) IsPrimitive() bool {
	switch t.Kind {
	case KBoolean, KInt, KFloat, KString, KFile, KDirectory:
		return true
	}
	return false
}

// String renders the type using WDL source syntax, e.g. "Array[Int]+",
// "Map[String, File]?". Used for diagnostics and for the lex+parse
// round-trip property.
func (t *Type) String() string {
	s := t.base()
	if t.NonEmpty {
		s += "+"
	}
	if t.Optional {
		s += "?"
	}
	return s
}

func (t *Type) base() string {
	switch t.Kind {
	case KBoolean:
		return "Boolean"
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KString:
		return "String"
	case KFile:
		return "File"
	case KDirectory:
		return "Directory"
	case KAny:
		return "Any"
	case KNone:
		return "None"
	case KObject:
		return "Object"
	case KArray:
		return fmt.Sprintf("Array[%s]", t.Elem.String())
	case KMap:
		return fmt.Sprintf("Map[%s, %s]", t.Key.String(), t.Value.String())
	case KPair:
		return fmt.Sprintf("Pair[%s, %s]", t.Left.String(), t.Right.String())
	case KStruct:
		return t.StructName
	}
	return "?"
}

// Equatable reports whether two types may be compared with ==/!= per
// spec.md 3.2: both primitive of equal kind after optionality erasure, or
// recursively equatable compound types.
func Equatable(a, b *Type) bool {
	if a.IsPrimitive() && b.IsPrimitive() {
		return a.Kind == b.Kind || numericPair(a.Kind, b.Kind)
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KArray:
		return Equatable(a.Elem, b.Elem)
	case KMap:
		return Equatable(a.Key, b.Key) && Equatable(a.Value, b.Value)
	case KPair:
		return Equatable(a.Left, b.Left) && Equatable(a.Right, b.Right)
	case KObject:
		return true
	case KStruct:
		return a.StructName == b.StructName
	}
	return false
}

func numericPair(a, b Kind) bool {
	isNum := func(k Kind) bool { return k == KInt || k == KFloat }
	return isNum(a) && isNum(b)
}

// Coerces implements the static coercion predicate `coerces(from, to,
// strict)` of spec.md 3.2.
func Coerces(from, to *Type, strict bool) bool {
	if to.Kind == KAny {
		return true
	}
	if from.Kind == KAny {
		return true // Any is the top type; the runtime coercion decides
	}
	if from.Kind == KNone {
		return to.Optional
	}
	if from.Optional && !to.Optional {
		if strict {
			return false
		}
		return Coerces(from.Required(), to, strict)
	}
	if !from.Optional && to.Optional {
		return Coerces(from, to.Required(), strict)
	}

	if from.Kind == to.Kind && sameShape(from, to, strict) {
		return true
	}
	if from.Kind == KInt && to.Kind == KFloat {
		return true
	}
	if from.Kind == KString && (to.Kind == KFile || to.Kind == KDirectory || to.Kind == KInt || to.Kind == KFloat) {
		return true
	}
	if to.Kind == KString {
		return true // Any -> String via stringification
	}
	if to.Kind == KArray && from.Kind != KArray {
		return Coerces(from, to.Elem, strict)
	}
	if from.Kind == KMap && to.Kind == KStruct {
		return mapCoercesToStruct(from, to)
	}
	if from.Kind == KObject && to.Kind == KStruct {
		return true // structural compatibility checked at runtime; see resolved Open Question
	}
	return false
}

func sameShape(from, to *Type, strict bool) bool {
	switch from.Kind {
	case KArray:
		return Coerces(from.Elem, to.Elem, strict)
	case KMap:
		return Coerces(from.Key, to.Key, strict) && Coerces(from.Value, to.Value, strict)
	case KPair:
		return Coerces(from.Left, to.Left, strict) && Coerces(from.Right, to.Right, strict)
	case KStruct:
		return from.StructName == to.StructName
	default:
		return true
	}
}

func mapCoercesToStruct(m, s *Type) bool {
	if s.Members == nil {
		return false // unresolved struct; caller must resolve first
	}
	// Static check only verifies the map's value type coerces to *some*
	// member; per-key validation happens at runtime against concrete keys.
	for _, memberType := range s.Members {
		if !Coerces(m.Value, memberType, false) {
			return false
		}
	}
	return true
}
