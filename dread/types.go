// Package dread resolves engine types from the 64-bit hashes of their names
// and builds blank fields of the right shape for them, so that values of
// statically unknown type can be read from a type tag in the stream.
package dread

import (
	"fmt"

	"github.com/andreyvit/mercury"
	"github.com/andreyvit/mercury/strid"
)

type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindEnum
	KindTypedef
	KindVector
	KindDictionary
	KindPointer
	KindFlagset
	KindConcrete
)

var kindNames = [...]string{
	KindPrimitive:  "primitive",
	KindStruct:     "struct",
	KindEnum:       "enum",
	KindTypedef:    "typedef",
	KindVector:     "vector",
	KindDictionary: "dictionary",
	KindPointer:    "pointer",
	KindFlagset:    "flagset",
	KindConcrete:   "concrete",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type describes one engine type. The set of implementations is closed.
type Type interface {
	Name() string
	ID() strid.ID
	Kind() Kind

	isType()
}

type typeName string

func (n typeName) Name() string { return string(n) }
func (n typeName) ID() strid.ID { return strid.Of(string(n)) }
func (typeName) isType()        {}

type PrimitiveKind string

const (
	PrimBool      PrimitiveKind = "bool"
	PrimInt       PrimitiveKind = "int"
	PrimUInt      PrimitiveKind = "uint"
	PrimUInt16    PrimitiveKind = "uint16"
	PrimUInt64    PrimitiveKind = "uint64"
	PrimFloat     PrimitiveKind = "float"
	PrimString    PrimitiveKind = "string"
	PrimProperty  PrimitiveKind = "property"
	PrimBytes     PrimitiveKind = "bytes"
	PrimFloatVec2 PrimitiveKind = "float_vec2"
	PrimFloatVec3 PrimitiveKind = "float_vec3"
	PrimFloatVec4 PrimitiveKind = "float_vec4"
)

// PrimitiveType is a scalar or a fixed-size tuple.
type PrimitiveType struct {
	typeName
	Primitive PrimitiveKind
}

// StructField is one member of a Struct, in declaration order.
type StructField struct {
	Name string
	Type string
}

// StructType is a property bag holding the parent's fields followed by its own.
type StructType struct {
	typeName
	Parent string
	Fields []StructField
}

// EnumType is stored as an int32.
type EnumType struct {
	typeName
	Values map[string]uint32
}

// ValueName returns the name of an enum value.
func (e *EnumType) ValueName(v uint32) (string, bool) {
	for name, x := range e.Values {
		if x == v {
			return name, true
		}
	}
	return "", false
}

// TypedefType is stored exactly like Alias.
type TypedefType struct {
	typeName
	Alias string
}

// VectorType is a u32 count followed by values.
type VectorType struct {
	typeName
	ValueType string
}

// DictionaryType is a u32 count followed by key/value pairs.
type DictionaryType struct {
	typeName
	KeyType   string
	ValueType string
}

// PointerType is an inline type-tagged value of Target or a type derived from
// it; a zero tag is null.
type PointerType struct {
	typeName
	Target string
}

// FlagsetType is stored like its Enum.
type FlagsetType struct {
	typeName
	Enum string
}

// ConcreteType is a hand-written type whose shape the generic descriptors
// cannot express. New must not call back into the registry.
type ConcreteType struct {
	typeName
	Parent string
	New    func() mercury.Field
}

func (*PrimitiveType) Kind() Kind  { return KindPrimitive }
func (*StructType) Kind() Kind     { return KindStruct }
func (*EnumType) Kind() Kind       { return KindEnum }
func (*TypedefType) Kind() Kind    { return KindTypedef }
func (*VectorType) Kind() Kind     { return KindVector }
func (*DictionaryType) Kind() Kind { return KindDictionary }
func (*PointerType) Kind() Kind    { return KindPointer }
func (*FlagsetType) Kind() Kind    { return KindFlagset }
func (*ConcreteType) Kind() Kind   { return KindConcrete }

// NewConcrete describes a hand-written type. parent may be empty.
func NewConcrete(name, parent string, newFn func() mercury.Field) *ConcreteType {
	return &ConcreteType{typeName(name), parent, newFn}
}
