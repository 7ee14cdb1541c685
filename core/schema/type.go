// Package schema defines the descriptor model: the types and operations an
// API declares into the registry. Descriptors are constructed explicitly in
// Go during a dedicated registration step; nothing is inferred from struct
// tags, reflection, or annotations.
package schema

import "strings"

// Kind discriminates the type descriptor variants. Exactly one variant is
// active per Type, selected by Kind.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindRecord    Kind = "record"
	KindEnum      Kind = "enum"
	KindOptional  Kind = "optional"
	KindList      Kind = "list"
	KindRef       Kind = "ref"
)

// Primitive names form a closed set. The renderer and the validator both
// switch over these, so adding one means touching both.
const (
	PrimitiveString    = "string"
	PrimitiveBool      = "bool"
	PrimitiveInt       = "int"
	PrimitiveUint      = "uint"
	PrimitiveFloat     = "float"
	PrimitiveTimestamp = "timestamp"
)

// Type is a type descriptor. Primitives and references carry Name, records
// carry Fields, enums carry Variants, optional and list carry Elem. Records
// never nest records inline; recursion is only possible through a named
// reference, so descriptor graphs built with the constructors below are
// acyclic by construction.
type Type struct {
	Kind     Kind
	Name     string   // primitive name, or referenced type name for KindRef
	Fields   []Field  // record fields, in declaration order
	Variants []string // enum variants, in declaration order
	Elem     *Type    // inner type for optional and list
}

// Field describes one record field. Names are unique within a record;
// Required decides whether the field may be omitted entirely. A present
// field may still be null when its type is optional.
type Field struct {
	Name     string
	Type     *Type
	Required bool
}

// String returns a short name for error messages.
func (t *Type) String() string {
	switch t.Kind {
	case KindPrimitive, KindRef:
		return t.Name
	case KindRecord:
		return "record"
	case KindEnum:
		return "enum"
	case KindOptional:
		return "optional<" + t.Elem.String() + ">"
	case KindList:
		return "list<" + t.Elem.String() + ">"
	}
	return string(t.Kind)
}

// IsOptional reports whether the descriptor admits null.
func (t *Type) IsOptional() bool { return t.Kind == KindOptional }

func String() *Type    { return &Type{Kind: KindPrimitive, Name: PrimitiveString} }
func Bool() *Type      { return &Type{Kind: KindPrimitive, Name: PrimitiveBool} }
func Int() *Type       { return &Type{Kind: KindPrimitive, Name: PrimitiveInt} }
func Uint() *Type      { return &Type{Kind: KindPrimitive, Name: PrimitiveUint} }
func Float() *Type     { return &Type{Kind: KindPrimitive, Name: PrimitiveFloat} }
func Timestamp() *Type { return &Type{Kind: KindPrimitive, Name: PrimitiveTimestamp} }

// Record builds a record descriptor from fields in declaration order. The
// order is part of the schema and survives into the rendered document.
func Record(fields ...Field) *Type {
	return &Type{Kind: KindRecord, Fields: fields}
}

// Enum builds an enum descriptor. Variants are lowercased here so the
// declaration is already in wire form.
func Enum(variants ...string) *Type {
	lowered := make([]string, len(variants))
	for i, v := range variants {
		lowered[i] = strings.ToLower(v)
	}
	return &Type{Kind: KindEnum, Variants: lowered}
}

// Optional wraps inner so that null becomes an admissible value.
func Optional(inner *Type) *Type {
	return &Type{Kind: KindOptional, Elem: inner}
}

// List builds a homogeneous list descriptor.
func List(elem *Type) *Type {
	return &Type{Kind: KindList, Elem: elem}
}

// Ref names a type registered elsewhere. References resolve through the
// registry at render and validation time.
func Ref(name string) *Type {
	return &Type{Kind: KindRef, Name: name}
}

// F is shorthand for a required field.
func F(name string, t *Type) Field {
	return Field{Name: name, Type: t, Required: true}
}

// Opt is shorthand for an omittable, nullable field.
func Opt(name string, t *Type) Field {
	return Field{Name: name, Type: Optional(t), Required: false}
}
